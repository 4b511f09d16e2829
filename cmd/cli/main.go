package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"charvault/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token string `json:"token"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type listResponse struct {
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
	Items  []models.Character `json:"items"`
}

func main() {
	global := flag.NewFlagSet("charvault", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}

	client := &http.Client{Timeout: 30 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "characters":
		handleCharacters(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "import":
		handleImport(ctx, client, *baseURL, *tokenPath, args[1:])
	case "export":
		handleExport(ctx, client, *baseURL, sub, args[2:])
	case "scan":
		handleScan(ctx, client, *baseURL, *tokenPath, sub, args[2:])
	case "feed":
		handleFeed(*baseURL, sub, args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *email == "" || *password == "" {
			log.Fatal("email and password are required")
		}

		payload := map[string]string{"email": *email, "password": *password}
		var resp loginResponse
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/login", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("✅ logged in")
	case "logout":
		token := mustToken(tokenPath)
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/logout", token, nil, nil); err != nil {
			log.Printf("server logout failed: %v", err)
		}
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("✅ logged out")
	case "change-password":
		fs := flag.NewFlagSet("auth change-password", flag.ExitOnError)
		current := fs.String("current", "", "current password")
		next := fs.String("new", "", "new password")
		_ = fs.Parse(args)
		if *current == "" || *next == "" {
			log.Fatal("current and new passwords are required")
		}

		token := mustToken(tokenPath)
		payload := map[string]string{"current_password": *current, "new_password": *next}
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/change-password", token, payload, nil); err != nil {
			log.Fatalf("change password failed: %v", err)
		}
		// the server bumps token_version, so the stored token is dead
		_ = clearToken(tokenPath)
		fmt.Println("✅ password changed, please login again")
	default:
		log.Fatal("usage: charvault auth <login|logout|change-password>")
	}
}

func handleCharacters(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "search":
		fs := flag.NewFlagSet("characters search", flag.ExitOnError)
		query := fs.String("q", "", "search query")
		typ := fs.String("type", "", "tier filter")
		release := fs.String("release", "", "element filter")
		sort := fs.String("sort", "", "sort order (type_asc|type_desc)")
		limit := fs.Int("limit", 20, "page size")
		offset := fs.Int("offset", 0, "offset")
		_ = fs.Parse(args)

		u, err := url.Parse(baseURL + "/characters")
		if err != nil {
			log.Fatalf("invalid base url: %v", err)
		}
		qv := u.Query()
		if *query != "" {
			qv.Set("q", *query)
		}
		if *typ != "" {
			qv.Set("type", *typ)
		}
		if *release != "" {
			qv.Set("release", *release)
		}
		if *sort != "" {
			qv.Set("sort", *sort)
		}
		qv.Set("limit", fmt.Sprintf("%d", *limit))
		qv.Set("offset", fmt.Sprintf("%d", *offset))
		u.RawQuery = qv.Encode()

		var resp listResponse
		if err := doJSON(ctx, client, http.MethodGet, u.String(), "", nil, &resp); err != nil {
			log.Fatalf("search failed: %v", err)
		}
		printJSON(resp)
	case "show":
		fs := flag.NewFlagSet("characters show", flag.ExitOnError)
		id := fs.String("id", "", "character id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("character id is required")
		}

		var resp models.Character
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/characters/"+url.PathEscape(*id), "", nil, &resp); err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(resp)
	case "stats":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/characters/stats", "", nil, &resp); err != nil {
			log.Fatalf("stats failed: %v", err)
		}
		printJSON(resp)
	case "save":
		fs := flag.NewFlagSet("characters save", flag.ExitOnError)
		file := fs.String("file", "", "JSON file with the character (default: stdin)")
		id := fs.String("id", "", "existing character id to update")
		_ = fs.Parse(args)

		data, err := readInput(*file)
		if err != nil {
			log.Fatalf("read character: %v", err)
		}
		var payload models.Character
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Fatalf("parse character: %v", err)
		}

		token := mustToken(tokenPath)
		method := http.MethodPost
		endpoint := baseURL + "/characters"
		if *id != "" {
			method = http.MethodPut
			endpoint += "/" + url.PathEscape(*id)
		}

		var resp models.Character
		if err := doJSON(ctx, client, method, endpoint, token, payload, &resp); err != nil {
			log.Fatalf("save failed: %v", err)
		}
		printJSON(resp)
	case "delete":
		fs := flag.NewFlagSet("characters delete", flag.ExitOnError)
		id := fs.String("id", "", "character id")
		ids := fs.String("ids", "", "comma-separated ids for a batch delete")
		_ = fs.Parse(args)

		token := mustToken(tokenPath)
		switch {
		case *ids != "":
			payload := map[string]any{"ids": strings.Split(*ids, ",")}
			var resp map[string]any
			if err := doJSON(ctx, client, http.MethodPost, baseURL+"/characters/delete-batch", token, payload, &resp); err != nil {
				log.Fatalf("batch delete failed: %v", err)
			}
			printJSON(resp)
		case *id != "":
			var resp map[string]any
			if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/characters/"+url.PathEscape(*id), token, nil, &resp); err != nil {
				log.Fatalf("delete failed: %v", err)
			}
			printJSON(resp)
		default:
			log.Fatal("id or ids is required")
		}
	default:
		log.Fatal("usage: charvault characters <search|show|stats|save|delete>")
	}
}

func handleImport(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "CSV file to import (default: stdin)")
	_ = fs.Parse(args)

	data, err := readInput(*file)
	if err != nil {
		log.Fatalf("read csv: %v", err)
	}

	token := mustToken(tokenPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/characters/import", strings.NewReader(string(data)))
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		log.Fatalf("import failed: %s", strings.TrimSpace(string(body)))
	}

	var out struct {
		Imported int `json:"imported"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		log.Fatalf("parse response: %v", err)
	}
	fmt.Printf("✅ imported %d characters\n", out.Imported)
}

func handleExport(ctx context.Context, client *http.Client, baseURL, sub string, args []string) {
	switch sub {
	case "csv":
		fs := flag.NewFlagSet("export csv", flag.ExitOnError)
		out := fs.String("out", "", "output path (default: derived from the date)")
		_ = fs.Parse(args)

		path := *out
		if path == "" {
			path = fmt.Sprintf("game_db_sync_%s.csv", time.Now().Format("2006-01-02"))
		}

		data, err := fetchRaw(ctx, client, baseURL+"/characters/export")
		if err != nil {
			log.Fatalf("export failed: %v", err)
		}
		if err := writeOutput(path, data); err != nil {
			log.Fatalf("write %s: %v", path, err)
		}
		log.Printf("✅ exported catalog to %s", path)
	case "code":
		fs := flag.NewFlagSet("export code", flag.ExitOnError)
		out := fs.String("out", "OutfitInfos.cs", "output C# source path")
		ids := fs.String("ids", "", "comma-separated character ids (default: whole catalog)")
		_ = fs.Parse(args)

		var payload map[string]any
		if *ids != "" {
			payload = map[string]any{"ids": strings.Split(*ids, ",")}
		}

		var resp struct {
			Count int    `json:"count"`
			Code  string `json:"code"`
		}
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/characters/code", "", payload, &resp); err != nil {
			log.Fatalf("code export failed: %v", err)
		}
		if err := writeOutput(*out, []byte(resp.Code)); err != nil {
			log.Fatalf("write %s: %v", *out, err)
		}
		log.Printf("✅ generated %s with %d entries", *out, resp.Count)
	default:
		log.Fatal("usage: charvault export <csv|code>")
	}
}

func handleScan(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	token := mustToken(tokenPath)
	switch sub {
	case "stats":
		fs := flag.NewFlagSet("scan stats", flag.ExitOnError)
		name := fs.String("name", "", "character name")
		desc := fs.String("description", "", "freeform description")
		_ = fs.Parse(args)
		if *name == "" {
			log.Fatal("name is required")
		}

		payload := map[string]string{"name": *name, "description": *desc}
		var resp models.Character
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/scan/stats", token, payload, &resp); err != nil {
			log.Fatalf("scan failed: %v", err)
		}
		printJSON(resp)
	case "image":
		fs := flag.NewFlagSet("scan image", flag.ExitOnError)
		file := fs.String("file", "", "png screenshot of a card")
		_ = fs.Parse(args)
		if *file == "" {
			log.Fatal("file is required")
		}

		img, err := encodeImage(*file)
		if err != nil {
			log.Fatalf("read image: %v", err)
		}
		var resp models.Character
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/scan/image", token, map[string]string{"image": img}, &resp); err != nil {
			log.Fatalf("scan failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: charvault scan <stats|image>")
	}
}

func handleFeed(baseURL, sub string, args []string) {
	switch sub {
	case "subscribe":
		fs := flag.NewFlagSet("feed subscribe", flag.ExitOnError)
		wsURL := fs.String("ws", "", "WebSocket URL (defaults to /ws on API host)")
		_ = fs.Parse(args)

		endpoint := *wsURL
		if endpoint == "" {
			var err error
			endpoint, err = websocketURL(baseURL, "/ws")
			if err != nil {
				log.Fatalf("ws url: %v", err)
			}
		}
		if err := runWebSocket(endpoint); err != nil {
			log.Fatalf("subscribe failed: %v", err)
		}
	default:
		log.Fatal("usage: charvault feed subscribe")
	}
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[feed] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Println(string(msg))
	}
}

func fetchRaw(ctx context.Context, client *http.Client, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s failed: %s", endpoint, strings.TrimSpace(string(data)))
	}
	return data, nil
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	return nil
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func encodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.charvault-token.json"
	}
	return filepath.Join(home, ".charvault", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func mustToken(path string) string {
	token, err := readToken(path)
	if err != nil {
		log.Fatalf("token not found, please login: %v", err)
	}
	if token == "" {
		log.Fatal("token empty, please login")
	}
	return token
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("charvault <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|logout|change-password")
	fmt.Println("  characters search|show|stats|save|delete")
	fmt.Println("  import -file data.csv")
	fmt.Println("  export csv|code")
	fmt.Println("  scan stats|image")
	fmt.Println("  feed subscribe")
}
