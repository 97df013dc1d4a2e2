package model

import "errors"

var (
	ErrCatalogEmpty    = errors.New("no questions in catalog")
	ErrLedgerNotFound  = errors.New("ledger does not exist")
	ErrLedgerExists    = errors.New("ledger already exists")
	ErrInvalidQuestion = errors.New("invalid question")
	ErrUnknownChannel  = errors.New("unknown channel")
)
