package http

import "net/http"

//go:generate go run go.uber.org/mock/mockgen -package mocks -destination mocks/http.go github.com/kasuboski/umaru/pkg/http HTTPClient

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
