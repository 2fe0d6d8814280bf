package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/Piyush-Mishra-IIITB/socket/config"
	"github.com/Piyush-Mishra-IIITB/socket/internal/call"
	"github.com/Piyush-Mishra-IIITB/socket/internal/chat"
	"github.com/Piyush-Mishra-IIITB/socket/internal/models"
	"github.com/Piyush-Mishra-IIITB/socket/internal/signal"
)

// app glues the relay connection to the call controller and chat log.
// It implements signal.Handler.
type app struct {
	controller *call.Controller
	chatLog    *chat.Log

	mu        sync.Mutex
	selfID    string
	endpoints []string
	messenger *chat.Messenger
	sender    chat.Sender
}

func (a *app) OnWelcome(id string) {
	a.mu.Lock()
	a.selfID = id
	if a.sender != nil {
		a.messenger = chat.NewMessenger(a.sender, a.chatLog, id)
	}
	a.mu.Unlock()
	fmt.Printf("connected, your id is %s\n", id)
}

// messengerOrNil builds the messenger lazily in case the welcome
// arrived before the sender was wired up.
func (a *app) messengerOrNil() *chat.Messenger {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.messenger == nil && a.selfID != "" && a.sender != nil {
		a.messenger = chat.NewMessenger(a.sender, a.chatLog, a.selfID)
	}
	return a.messenger
}

func (a *app) OnPresence(endpoints []string) {
	a.mu.Lock()
	a.endpoints = endpoints
	a.mu.Unlock()
}

func (a *app) OnEnvelope(env models.Envelope) {
	a.mu.Lock()
	controller := a.controller
	a.mu.Unlock()

	if env.Kind == models.KindChatMessage {
		if messenger := a.messengerOrNil(); messenger != nil {
			messenger.Receive(env)
		}
		var msg models.ChatMessage
		if env.Decode(&msg) == nil {
			fmt.Printf("%s: %s\n", env.From, msg.Text)
		}
		return
	}
	if controller == nil {
		return
	}

	controller.HandleEnvelope(env)
	if env.Kind == models.KindCallRequest {
		fmt.Printf("incoming call from %s (accept/reject)\n", env.From)
	}
	if status := controller.Status(); status != "" {
		fmt.Println(status)
	}
}

func (a *app) who() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range a.endpoints {
		if id == a.selfID {
			continue
		}
		fmt.Println(id)
	}
}

func main() {
	cfg := config.Load()

	factory := &call.PionFactory{STUNServer: cfg.STUNServer}
	media := call.NewTrackSource()

	a := &app{chatLog: chat.NewLog()}

	client, err := signal.Dial(cfg.RelayURL, a)
	if err != nil {
		log.Fatalf("failed to connect to relay: %v", err)
	}
	defer client.Close()

	a.mu.Lock()
	a.sender = client
	a.controller = call.NewController(client, factory.New, media)
	a.mu.Unlock()

	fmt.Println("commands: who | media | call <id> | accept | reject | hangup | msg <id> <text> | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "who":
			a.who()
		case "media":
			if err := a.controller.StartLocalMedia(); err != nil {
				fmt.Printf("media error: %v\n", err)
			}
		case "call":
			if len(fields) != 2 {
				fmt.Println("usage: call <id>")
				continue
			}
			if err := a.controller.Call(fields[1]); err != nil {
				fmt.Printf("call error: %v\n", err)
				continue
			}
			fmt.Printf("calling %s...\n", fields[1])
		case "accept":
			if err := a.controller.AcceptIncomingCall(); err != nil {
				fmt.Printf("accept error: %v\n", err)
			}
		case "reject":
			a.controller.RejectIncomingCall()
		case "hangup":
			a.controller.Hangup()
		case "msg":
			if len(fields) < 3 {
				fmt.Println("usage: msg <id> <text>")
				continue
			}
			messenger := a.messengerOrNil()
			if messenger == nil {
				fmt.Println("not connected yet")
				continue
			}
			if err := messenger.Send(fields[1], strings.Join(fields[2:], " ")); err != nil {
				fmt.Printf("send error: %v\n", err)
			}
		case "quit":
			a.controller.Hangup()
			return
		default:
			fmt.Printf("unknown command: %s\n", fields[0])
		}
	}
}
