package storage

//go:generate go run go.uber.org/mock/mockgen -package mocks -destination mocks/mock_ledger_storage.go github.com/kasuboski/umaru/pkg/storage LedgerStorage
