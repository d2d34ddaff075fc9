package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeCreateRoom    = 101
	MsgTypeJoinRoom      = 102
	MsgTypeChooseRole    = 104
	MsgTypeMove          = 201
	MsgTypeInteract      = 202
	MsgTypeConsoleSubmit = 203
	MsgTypeUseHint       = 205
	MsgTypeChat          = 207
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func sendJSON(c *websocket.Conn, msgID uint16, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return send(c, msgID, data)
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	name := "tester"
	if len(os.Args) > 1 {
		name = os.Args[1]
	}

	if len(os.Args) > 2 {
		log.Printf("Joining room %s...", os.Args[2])
		sendJSON(c, MsgTypeJoinRoom, map[string]string{"room_code": os.Args[2], "display_name": name})
	} else {
		log.Println("Sending Create Room request...")
		sendJSON(c, MsgTypeCreateRoom, map[string]string{"display_name": name})
	}

	log.Println("Commands: role <r> | move <x> <y> | use <objectId> | code <consoleId> <input> | hint <roomId> | say <text>")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			fields := strings.Fields(strings.TrimSpace(text))
			if len(fields) == 0 {
				continue
			}

			var err error
			switch fields[0] {
			case "role":
				if len(fields) == 2 {
					err = sendJSON(c, MsgTypeChooseRole, map[string]string{"role": fields[1]})
				}
			case "move":
				if len(fields) == 3 {
					x, _ := strconv.Atoi(fields[1])
					y, _ := strconv.Atoi(fields[2])
					err = sendJSON(c, MsgTypeMove, map[string]int{"x": x, "y": y})
				}
			case "use":
				if len(fields) == 2 {
					err = sendJSON(c, MsgTypeInteract, map[string]interface{}{"object_id": fields[1]})
				}
			case "code":
				if len(fields) == 3 {
					err = sendJSON(c, MsgTypeConsoleSubmit, map[string]string{"console_id": fields[1], "input": fields[2]})
				}
			case "hint":
				if len(fields) == 2 {
					err = sendJSON(c, MsgTypeUseHint, map[string]string{"room_id": fields[1]})
				}
			case "say":
				err = sendJSON(c, MsgTypeChat, map[string]string{"text": strings.Join(fields[1:], " ")})
			default:
				log.Printf("Unknown command: %s", fields[0])
			}

			if err != nil {
				log.Println("Write error:", err)
				return
			}
		}
	}
}
