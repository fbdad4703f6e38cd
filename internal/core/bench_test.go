package core

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkGlobalBroadcast(b *testing.B, recipients int) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, nil)
	go hub.Run(ctx)

	sender := NewClient("sender")
	hub.RegisterClient(sender)
	hub.IdentifyClient(sender, "sender")

	clients := make([]*Client, 0, recipients)
	for i := 0; i < recipients; i++ {
		c := NewClient(fmt.Sprintf("c%d", i))
		hub.RegisterClient(c)
		hub.IdentifyClient(c, fmt.Sprintf("user%d", i))
		clients = append(clients, c)
	}

	// Drain events for all but the first recipient to avoid channel backpressure.
	target := clients[0]
	for _, c := range clients[1:] {
		go func(cl *Client) {
			for range cl.Events {
			}
		}(c)
	}
	go func() {
		for range sender.Events {
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		sender.Commands <- &Command{
			Kind:    CommandSendGlobalMessage,
			Message: Message{Text: "payload"},
		}
		<-target.Events
	}
}

func BenchmarkGlobalBroadcast_10(b *testing.B)  { benchmarkGlobalBroadcast(b, 10) }
func BenchmarkGlobalBroadcast_100(b *testing.B) { benchmarkGlobalBroadcast(b, 100) }
func BenchmarkGlobalBroadcast_500(b *testing.B) { benchmarkGlobalBroadcast(b, 500) }
