package clients

import (
	"net/http"
)

type AuthEngine interface {
	SetAuth(request *http.Request)
}

type BasicAuth struct {
	username string
	password string
}

func NewBasicAuth(username, password string) *BasicAuth {
	return &BasicAuth{username: username, password: password}
}

func (b *BasicAuth) SetAuth(request *http.Request) {
	request.SetBasicAuth(b.username, b.password)
}
