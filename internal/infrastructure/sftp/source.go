// Package sftp reads Orian stock report files from its SFTP drop directory.
package sftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	applogistics "github.com/giftcampaign/backend/internal/application/logistics"
	"github.com/giftcampaign/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ applogistics.SnapshotSource = (*Source)(nil)

// maxFileSize bounds a downloaded stock report
const maxFileSize = 32 << 20

// Source lists and downloads files from one remote directory. The SSH
// connection is opened on first use and reused until an operation fails.
type Source struct {
	addr    string
	dir     string
	timeout time.Duration
	ssh     *ssh.ClientConfig
	logger  *zap.Logger

	mu     sync.Mutex
	conn   *ssh.Client
	client *sftp.Client
}

// NewSource creates a source from the Orian SFTP settings
func NewSource(cfg *config.OrianConfig, log *zap.Logger) (*Source, error) {
	if cfg == nil || cfg.SFTPHost == "" {
		return nil, errors.New("sftp host is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.SFTPHostKey != "" {
		key, _, _, _, err := ssh.ParseAuthorizedKey([]byte(cfg.SFTPHostKey))
		if err != nil {
			return nil, fmt.Errorf("invalid sftp host key: %w", err)
		}
		hostKeyCallback = ssh.FixedHostKey(key)
	} else {
		log.Warn("sftp host key not configured, server identity is not verified")
	}

	timeout := cfg.SFTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	dir := cfg.SFTPDir
	if dir == "" {
		dir = "."
	}

	return &Source{
		addr:    cfg.SFTPAddr(),
		dir:     dir,
		timeout: timeout,
		ssh: &ssh.ClientConfig{
			User:            cfg.SFTPUser,
			Auth:            []ssh.AuthMethod{ssh.Password(cfg.SFTPPassword)},
			HostKeyCallback: hostKeyCallback,
			Timeout:         timeout,
		},
		logger: log.Named("sftp"),
	}, nil
}

// List returns the regular files of the directory
func (s *Source) List(ctx context.Context) ([]applogistics.RemoteFile, error) {
	var files []applogistics.RemoteFile
	err := s.with(ctx, func(c *sftp.Client) error {
		entries, err := c.ReadDir(s.dir)
		if err != nil {
			return fmt.Errorf("read dir %s: %w", s.dir, err)
		}
		files = files[:0]
		for _, e := range entries {
			if !e.Mode().IsRegular() {
				continue
			}
			files = append(files, applogistics.RemoteFile{Name: e.Name(), ModTime: e.ModTime()})
		}
		return nil
	})
	return files, err
}

// Fetch downloads one file of the directory
func (s *Source) Fetch(ctx context.Context, name string) ([]byte, error) {
	if name == "" || path.Base(name) != name {
		return nil, fmt.Errorf("invalid file name %q", name)
	}
	var body []byte
	err := s.with(ctx, func(c *sftp.Client) error {
		f, err := c.Open(path.Join(s.dir, name))
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		defer f.Close()
		body, err = io.ReadAll(io.LimitReader(f, maxFileSize+1))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if len(body) > maxFileSize {
			return fmt.Errorf("%s exceeds %d bytes", name, maxFileSize)
		}
		return nil
	})
	return body, err
}

// Close drops the connection
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnect()
}

// with runs fn on a connected client and drops the connection when fn fails
func (s *Source) with(ctx context.Context, fn func(*sftp.Client) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.client == nil {
		if err := s.connect(ctx); err != nil {
			return err
		}
	}
	if err := fn(s.client); err != nil {
		if cerr := s.disconnect(); cerr != nil {
			s.logger.Debug("failed to close sftp connection", zap.Error(cerr))
		}
		return err
	}
	return nil
}

func (s *Source) connect(ctx context.Context) error {
	dialer := net.Dialer{Timeout: s.timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("dial sftp %s: %w", s.addr, err)
	}
	_ = netConn.SetDeadline(time.Now().Add(s.timeout))
	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, s.addr, s.ssh)
	if err != nil {
		_ = netConn.Close()
		return fmt.Errorf("ssh handshake with %s: %w", s.addr, err)
	}
	_ = netConn.SetDeadline(time.Time{})

	conn := ssh.NewClient(sshConn, chans, reqs)
	client, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("start sftp session: %w", err)
	}
	s.conn, s.client = conn, client
	s.logger.Debug("sftp connected", zap.String("addr", s.addr))
	return nil
}

func (s *Source) disconnect() error {
	if s.client == nil {
		return nil
	}
	err := errors.Join(s.client.Close(), s.conn.Close())
	s.conn, s.client = nil, nil
	return err
}
