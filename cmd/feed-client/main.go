package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"
)

// feedEvent mirrors the change-feed payload. Unknown event shapes are
// printed raw.
type feedEvent struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Count int    `json:"count,omitempty"`
	At    string `json:"at,omitempty"`
}

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP change-feed address")
	raw := flag.Bool("raw", false, "print events as raw JSON lines")
	flag.Parse()

	for {
		if err := run(*addr, *raw); err != nil {
			log.Printf("[feed-client] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func run(addr string, raw bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[feed-client] connected to %s", addr)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := sc.Bytes()

		if raw {
			fmt.Println(string(line))
			continue
		}

		var ev feedEvent
		if err := json.Unmarshal(line, &ev); err != nil || ev.Type == "" {
			fmt.Println(string(line))
			continue
		}
		fmt.Println(summarize(ev))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func summarize(ev feedEvent) string {
	switch ev.Type {
	case "record.saved":
		return fmt.Sprintf("%-20s %s (%s)", ev.Type, ev.Name, ev.ID)
	case "record.deleted":
		return fmt.Sprintf("%-20s %s", ev.Type, ev.ID)
	case "catalog.imported", "catalog.cleared":
		return fmt.Sprintf("%-20s %d records", ev.Type, ev.Count)
	default:
		return fmt.Sprintf("%-20s", ev.Type)
	}
}
