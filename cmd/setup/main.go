package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const configFile = "config.env"

var errAborted = errors.New("setup aborted")

func main() {
	if err := run(os.Stdin, os.Stdout, configFile); err != nil {
		if errors.Is(err, errAborted) {
			fmt.Println("Setup aborted. Using existing configuration.")
			return
		}
		log.Fatal(err)
	}
}

// run asks for the provider and secrets and writes them to path
func run(in io.Reader, out io.Writer, path string) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "Welcome to the Telegram chatbot setup!")
	fmt.Fprintln(out, "======================================")

	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "Found existing %s file.\n", path)
		answer, err := ask(reader, out, "Do you want to overwrite it? (y/n): ")
		if err != nil {
			return err
		}
		if strings.ToLower(answer) != "y" {
			return errAborted
		}
	}

	provider, err := ask(reader, out, "AI provider (cohere, gemini, openai) [cohere]: ")
	if err != nil {
		return err
	}
	provider = strings.ToLower(provider)
	if provider == "" {
		provider = "cohere"
	}

	var keyVar string
	switch provider {
	case "cohere":
		keyVar = "COHERE_API_KEY"
	case "gemini":
		keyVar = "GEMINI_API_KEY"
	case "openai":
		keyVar = "OPENAI_API_KEY"
	default:
		return fmt.Errorf("unsupported provider: %s", provider)
	}

	apiKey, err := ask(reader, out, fmt.Sprintf("Enter your %s API key: ", provider))
	if err != nil {
		return err
	}
	telegramToken, err := ask(reader, out, "Enter your Telegram Bot Token: ")
	if err != nil {
		return err
	}

	if apiKey == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}
	if telegramToken == "" {
		return errors.New("telegram bot token cannot be empty")
	}

	env := map[string]string{
		"AI_PROVIDER":        provider,
		keyVar:               apiKey,
		"TELEGRAM_BOT_TOKEN": telegramToken,
	}
	if err := godotenv.Write(env, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(out, "\nConfiguration saved to %s\n", path)
	fmt.Fprintln(out, "\nTo run the bot: go run ./cmd/chatbot")
	fmt.Fprintln(out, "To keep a conversation open between /start and /end: BOT_MODE=stateful go run ./cmd/chatbot")
	return nil
}

func ask(reader *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
