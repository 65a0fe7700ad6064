package ws

import (
	"encoding/json"

	response "github.com/kgellert/hodatay-groups/internal/lib/api/response"
)

const (
	FrameHello       = "hello"
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameResult      = "result"
	FrameError       = "error"
)

const (
	QueryGroupsList   = "groups.list"
	QueryGroupsGet    = "groups.get"
	QueryMessagesList = "messages.list"
)

type QueryArgs struct {
	ID      string `json:"id,omitempty"`
	GroupID string `json:"group_id,omitempty"`
}

type ClientFrame struct {
	Type  string    `json:"type"`
	ID    string    `json:"id,omitempty"`
	Query string    `json:"query,omitempty"`
	Args  QueryArgs `json:"args"`
}

type ServerFrame struct {
	Type  string              `json:"type"`
	ID    string              `json:"id,omitempty"`
	Data  json.RawMessage     `json:"data,omitempty"`
	Error *response.ErrorBody `json:"error,omitempty"`
}
