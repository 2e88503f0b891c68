package server

import (
	_ "go.uber.org/mock/gomock"
)

//go:generate go run go.uber.org/mock/mockgen -package mocks -destination mocks/manager.go github.com/kasuboski/umaru/server Manager
