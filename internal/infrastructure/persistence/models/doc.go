// Package models contains the GORM persistence models mapped to the database
// tables. Domain entities carry no ORM tags; repositories convert between the
// two with the To*/From* mappers kept next to each model.
//
// Catalog, organization and order tables are owned by the storefront and are
// only read here, except for the logistics fields of orders. Purchase orders,
// logistics events, status history, snapshots, receipts and tasks are owned
// by this service.
package models
