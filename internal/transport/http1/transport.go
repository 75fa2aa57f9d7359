package http1

import (
	"github.com/indigo-web/httpd/http"
	"github.com/indigo-web/httpd/internal/buffer"
	"github.com/indigo-web/httpd/internal/transport"
)

var _ transport.Transport = new(Transport)

type Transport struct {
	*Parser
	*Serializer
}

func New(
	request *http.Request,
	head, body *buffer.Buffer,
	version string,
	respBuff []byte,
	respFileBuffSize int,
) *Transport {
	return &Transport{
		Parser:     NewParser(request, head, body),
		Serializer: NewSerializer(version, respBuff, respFileBuffSize),
	}
}
