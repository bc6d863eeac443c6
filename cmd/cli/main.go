// Command cli is an operator console for the settlement backend: it opens
// the websocket event channel, subscribes to world and/or settlement rooms,
// and renders incoming events as they arrive using a lipgloss UI. Game
// mutations (build/upgrade/demolish, disaster trigger) are issued as plain
// HTTP calls against the admin REST API rather than as event-channel
// frames, since this console acts as an operator impersonating a
// settlement's owner rather than as the player's own client connection.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	cliVersion = "1.0.0"
	cliName    = "Settlement Ops Console"

	defaultServerAddr = "localhost:3001"
)

var operatorID = "cli-" + uuid.New().String()[:8]

type subscribeFrame struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

type inboundEvent struct {
	Type      string      `json:"type"`
	Room      string      `json:"room"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type client struct {
	conn       *websocket.Conn
	ui         *UI
	httpBase   string
	token      string
	httpClient *http.Client
	done       chan struct{}
	closed     bool
}

func main() {
	fmt.Printf("%s v%s\n", cliName, cliVersion)
	fmt.Println("Type 'help' for available commands, 'quit' to exit")
	fmt.Println()

	serverAddr := defaultServerAddr
	if len(os.Args) > 1 {
		serverAddr = os.Args[1]
	}
	token := os.Getenv("SETTLEMENT_TOKEN")

	c, err := connect(serverAddr, token)
	if err != nil {
		fmt.Println(errorStyle.Render("connect failed: " + err.Error()))
		os.Exit(1)
	}
	defer c.conn.Close()

	fmt.Printf("connected to %s as %s\n\n", serverAddr, operatorID)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		c.shutdown()
		os.Exit(0)
	}()

	go c.readLoop()
	c.commandLoop()
}

func connect(serverAddr, token string) (*client, error) {
	u := url.URL{Scheme: "ws", Host: serverAddr, Path: "/ws"}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, err
	}

	return &client{
		conn:       conn,
		ui:         NewUI(),
		httpBase:   "http://" + serverAddr,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		done:       make(chan struct{}),
	}, nil
}

func (c *client) shutdown() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.conn.Close()
}

// readLoop drains the event channel and hands every frame to the UI.
func (c *client) readLoop() {
	for {
		var msg inboundEvent
		if err := c.conn.ReadJSON(&msg); err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			fmt.Println(errorStyle.Render("connection closed: " + err.Error()))
			c.shutdown()
			return
		}
		c.ui.RenderEvent(msg.Room, msg.Type, msg.Payload, msg.Timestamp)
	}
}

// commandLoop reads operator commands from stdin.
func (c *client) commandLoop() {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-c.done:
			return
		default:
		}

		fmt.Print(promptStyle.Render("ops> "))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if c.dispatch(line) {
			return
		}
	}
}

func (c *client) dispatch(line string) (quit bool) {
	parts := strings.Fields(line)
	switch parts[0] {
	case "quit", "exit":
		c.shutdown()
		return true

	case "help":
		printHelp()

	case "join-world":
		requireArgs(parts, 2, "join-world <worldId>", func() { c.subscribe("world:" + parts[1]) })

	case "join-settlement":
		requireArgs(parts, 2, "join-settlement <settlementId>", func() { c.subscribe("settlement:" + parts[1]) })

	case "leave":
		requireArgs(parts, 2, "leave <room>", func() { c.unsubscribe(parts[1]) })

	case "dashboard":
		c.get("/admin/dashboard")

	case "worlds":
		c.get("/worlds")

	case "world":
		requireArgs(parts, 2, "world <worldId>", func() { c.get("/worlds/" + parts[1]) })

	case "settlement-structures":
		requireArgs(parts, 2, "settlement-structures <settlementId>", func() { c.get("/structures/by-settlement/" + parts[1]) })

	case "build":
		requireArgs(parts, 3, "build <settlementId> <structureId>", func() {
			c.post("/structures/create", map[string]string{"settlementId": parts[1], "structureId": parts[2]})
		})

	case "upgrade":
		requireArgs(parts, 2, "upgrade <structureId>", func() { c.post("/structures/"+parts[1]+"/upgrade", nil) })

	case "demolish":
		requireArgs(parts, 2, "demolish <structureId>", func() { c.delete("/structures/" + parts[1]) })

	case "trigger-disaster":
		requireArgs(parts, 3, "trigger-disaster <worldId> <type> [severity]", func() {
			body := map[string]interface{}{"worldId": parts[1], "type": parts[2]}
			if len(parts) > 3 {
				severity, err := strconv.ParseFloat(parts[3], 64)
				if err != nil {
					fmt.Println(errorStyle.Render("severity must be a number: " + parts[3]))
					return
				}
				body["severity"] = severity
			}
			c.post("/admin/disasters/trigger", body)
		})

	case "clear-disasters":
		requireArgs(parts, 2, "clear-disasters <worldId>", func() {
			c.post("/admin/disasters/clear", map[string]string{"worldId": parts[1]})
		})

	default:
		fmt.Println(errorStyle.Render("unknown command: " + parts[0] + " (try 'help')"))
	}
	return false
}

func requireArgs(parts []string, min int, usage string, fn func()) {
	if len(parts) < min {
		fmt.Println(errorStyle.Render("usage: " + usage))
		return
	}
	fn()
}

func (c *client) subscribe(room string) {
	if err := c.conn.WriteJSON(subscribeFrame{Action: "subscribe", Room: room}); err != nil {
		fmt.Println(errorStyle.Render("subscribe failed: " + err.Error()))
		return
	}
	fmt.Println(activeStyle.Render("subscribed to " + room))
}

func (c *client) unsubscribe(room string) {
	if err := c.conn.WriteJSON(subscribeFrame{Action: "unsubscribe", Room: room}); err != nil {
		fmt.Println(errorStyle.Render("unsubscribe failed: " + err.Error()))
		return
	}
	fmt.Println(inactiveStyle.Render("left " + room))
}

func (c *client) get(path string) {
	req, err := http.NewRequest(http.MethodGet, c.httpBase+path, nil)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}
	c.doRequest(req)
}

func (c *client) post(path string, body interface{}) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			fmt.Println(errorStyle.Render(err.Error()))
			return
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(http.MethodPost, c.httpBase+path, reader)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	c.doRequest(req)
}

func (c *client) delete(path string) {
	req, err := http.NewRequest(http.MethodDelete, c.httpBase+path, nil)
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}
	c.doRequest(req)
}

func (c *client) doRequest(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		fmt.Println(errorStyle.Render("request failed: " + err.Error()))
		return
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Println(errorStyle.Render("read failed: " + err.Error()))
		return
	}

	style := activeStyle
	if resp.StatusCode >= 400 {
		style = errorStyle
	}
	fmt.Println(style.Render(fmt.Sprintf("%d %s", resp.StatusCode, req.Method+" "+req.URL.Path)))
	if len(raw) > 0 {
		fmt.Println(basePanelStyle.Render(prettyJSON(raw)))
	}
}

func prettyJSON(raw []byte) string {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(pretty)
}

func printHelp() {
	fmt.Println(headerStyle.Render("Room subscription"))
	fmt.Println("  join-world <worldId>              subscribe to a world's event room")
	fmt.Println("  join-settlement <settlementId>     subscribe to a settlement's event room")
	fmt.Println("  leave <room>                       unsubscribe from a room")
	fmt.Println()
	fmt.Println(headerStyle.Render("Admin REST"))
	fmt.Println("  dashboard                          entity counts and uptime")
	fmt.Println("  worlds                             list worlds")
	fmt.Println("  world <worldId>                    fetch one world")
	fmt.Println("  settlement-structures <id>          list a settlement's structures")
	fmt.Println("  build <settlementId> <structureId> build a structure")
	fmt.Println("  upgrade <structureId>               upgrade a structure")
	fmt.Println("  demolish <structureId>               demolish a structure")
	fmt.Println("  trigger-disaster <worldId> <type> [severity]")
	fmt.Println("  clear-disasters <worldId>")
	fmt.Println()
	fmt.Println("  quit                               disconnect and exit")
}
