package api

import "github.com/goccy/go-json"

type (
	JoinRequest struct {
		Username   string      `json:"username,omitempty"`
		PublicIp   string      `json:"public_ip"`
		// PublicPort is kept as sent, any JSON number goes.
		PublicPort json.Number `json:"public_port"`
	}
	ChatRequest struct {
		// Message is relayed verbatim, whatever JSON value it is.
		Message json.RawMessage `json:"message,omitempty"`
	}
)

// PeerInfo is the public part of a peer: its name and UDP rendezvous endpoint.
type PeerInfo struct {
	PeerId   string      `json:"peerId"`
	Username string      `json:"username"`
	UdpIp    string      `json:"udp_ip"`
	UdpPort  json.Number `json:"udp_port"`
}

type (
	ExistingUsersResponse struct {
		T     T          `json:"type"`
		Users []PeerInfo `json:"users"`
	}
	JoinedResponse struct {
		T         T      `json:"type"`
		PeerId    string `json:"peerId"`
		UserCount int    `json:"userCount"`
	}
	UserJoinedResponse struct {
		T T `json:"type"`
		PeerInfo
	}
	ChatResponse struct {
		T        T               `json:"type"`
		Username string          `json:"username"`
		Message  json.RawMessage `json:"message,omitempty"`
	}
	UserLeftResponse struct {
		T        T      `json:"type"`
		PeerId   string `json:"peerId"`
		Username string `json:"username"`
	}
	ErrorResponse struct {
		T       T      `json:"type"`
		Message string `json:"message"`
	}
)

func NewExistingUsers(users []PeerInfo) ExistingUsersResponse {
	return ExistingUsersResponse{T: ExistingUsers, Users: users}
}

func NewJoined(id string, count int) JoinedResponse {
	return JoinedResponse{T: Joined, PeerId: id, UserCount: count}
}

func NewUserJoined(info PeerInfo) UserJoinedResponse {
	return UserJoinedResponse{T: UserJoined, PeerInfo: info}
}

func NewChat(username string, message json.RawMessage) ChatResponse {
	return ChatResponse{T: Chat, Username: username, Message: message}
}

func NewUserLeft(id string, username string) UserLeftResponse {
	return UserLeftResponse{T: UserLeft, PeerId: id, Username: username}
}

func NewError(err error) ErrorResponse { return ErrorResponse{T: Error, Message: err.Error()} }
