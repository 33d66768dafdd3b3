// Package model contains the database models shared across the server.
package model
