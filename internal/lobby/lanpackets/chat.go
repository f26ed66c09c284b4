package lanpackets

import (
	"bytes"
	"fmt"
)

// ChatToHost is the client->host chat/setting-change request. The lobby
// handler never interprets the text; it always replies with the fixed
// HostChat message below (spec.md §4.E).
type ChatToHost struct {
	Text string
}

func ParseChatToHost(payload []byte) (ChatToHost, error) {
	s, err := readString(bytes.NewReader(payload))
	if err != nil {
		return ChatToHost{}, fmt.Errorf("parsing ChatToHost: %w", err)
	}
	return ChatToHost{Text: s}, nil
}

// DisabledChatNotice is the fixed reply text spec.md §4.E mandates.
const DisabledChatNotice = "Setting changes and chat are disabled."

// HostChat encodes a host chat message addressed to the client.
func HostChat(text string) []byte {
	var buf bytes.Buffer
	writeString(&buf, text)
	return buf.Bytes()
}
