package crawler

//go:generate go run go.uber.org/mock/mockgen -package mocks -destination mocks/crawler.go github.com/kasuboski/umaru/pkg/crawler Crawler
