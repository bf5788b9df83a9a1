package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/lobbychat/internal/core"
	"github.com/vovakirdan/lobbychat/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("addr", "http://localhost:8080", "server base URL")
	user := flag.String("user", "tester", "username to register or log in as")
	password := flag.String("password", "tester-password", "password for user")
	to := flag.String("to", core.Lobby, "recipient username or Lobby")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	token, err := obtainToken(ctx, *base, *user, *password)
	if err != nil {
		return err
	}

	wsURL := strings.Replace(*base, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := sendFrame(ctx, conn, proto.InboundTypeHello, proto.HelloData{Token: token, Protocol: proto.ProtocolVersion}); err != nil {
		return err
	}
	if err := sendFrame(ctx, conn, proto.InboundTypeMsg, proto.MsgData{To: *to, Text: *text}); err != nil {
		return err
	}
	if err := sendFrame(ctx, conn, proto.InboundTypeHistory, proto.HistoryData{With: *to}); err != nil {
		return err
	}

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if outbound.Type == proto.OutboundTypeError && outbound.Error != nil {
			fmt.Printf("Error: %s %s\n", outbound.Error.Code, outbound.Error.Msg)
			continue
		}
		fmt.Printf("Received outbound: type=%s event=%s\n", outbound.Type, outbound.Event)

		switch outbound.Event {
		case proto.EventPresence:
			var evt proto.EventPresenceData
			if err := json.Unmarshal(outbound.Data, &evt); err == nil {
				for _, u := range evt.Users {
					fmt.Printf("  %s online=%v\n", u.User, u.Online)
				}
			}
		case proto.EventUserConnected, proto.EventUserDisconnected:
			var evt proto.EventUserChange
			if err := json.Unmarshal(outbound.Data, &evt); err == nil {
				fmt.Printf("  %s\n", evt.Notice)
			}
		case proto.EventHistory:
			var evt proto.EventHistoryData
			if err := json.Unmarshal(outbound.Data, &evt); err != nil {
				return fmt.Errorf("unmarshal history: %w", err)
			}
			for _, m := range evt.Messages {
				fmt.Printf("  [%s] %s -> %s: %q\n", time.Unix(m.TS, 0).Format(time.Kitchen), m.From, m.To, m.Text)
			}
			return nil
		}
	}
}

func sendFrame(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

// obtainToken registers user, falling back to login when the name is taken.
func obtainToken(ctx context.Context, base, user, password string) (string, error) {
	token, status, err := postAuth(ctx, base+"/api/register", user, password)
	if err != nil {
		return "", err
	}
	if status == http.StatusConflict {
		token, status, err = postAuth(ctx, base+"/api/login", user, password)
		if err != nil {
			return "", err
		}
	}
	if token == "" {
		return "", fmt.Errorf("auth failed with status %d", status)
	}
	return token, nil
}

func postAuth(ctx context.Context, url, user, password string) (string, int, error) {
	body, err := json.Marshal(map[string]string{"username": user, "password": password})
	if err != nil {
		return "", 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("post %s: %w", url, err)
	}
	defer resp.Body.Close()

	var out struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", resp.StatusCode, errors.Join(fmt.Errorf("decode %s", url), err)
	}
	return out.Token, resp.StatusCode, nil
}
