// Command practice runs a language practice session from the terminal,
// capturing the microphone with ffmpeg and playing AI speech with ffplay.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/muhannadalsrahen/speakright/adapters/audio"
	"github.com/muhannadalsrahen/speakright/adapters/gemini"
	"github.com/muhannadalsrahen/speakright/domain/entities"
	"github.com/muhannadalsrahen/speakright/domain/repositories"
	"github.com/muhannadalsrahen/speakright/internal/config"
	"github.com/muhannadalsrahen/speakright/internal/scenario"
	"github.com/muhannadalsrahen/speakright/internal/session"
)

func main() {
	sessionContext := flag.String("context", "", "scenario context, e.g. \"Coffee Shop\", or a free topic")
	virtualWorld := flag.Bool("virtual-world", false, "run as scenario role-play instead of free conversation")
	listScenarios := flag.Bool("scenarios", false, "list the built-in scenarios and exit")
	flag.Parse()

	if *listScenarios {
		for _, s := range scenario.Catalog() {
			fmt.Printf("%-16s %s\n", s.Name, s.RoleDescription)
		}
		return
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to load .env file", zap.Error(err))
	}

	cfg := config.NewConfigFromEnv()
	if cfg.GeminiAPIKey == "" {
		fmt.Fprintln(os.Stderr, "GEMINI_API_KEY is required")
		os.Exit(1)
	}

	dialer, err := gemini.NewDialer(cfg.GeminiAPIKey, logger)
	if err != nil {
		logger.Fatal("Failed to initialize conversational engine", zap.Error(err))
	}

	renderer, err := audio.NewFFplayRenderer(repositories.AudioConfig{SampleRate: 24000, Channels: 1}, logger)
	if err != nil {
		logger.Fatal("Failed to start audio playback", zap.Error(err))
	}
	mic := audio.NewFFmpegMicrophone(logger)

	controller := session.NewController(
		session.Options{
			Context:      *sessionContext,
			VirtualWorld: *virtualWorld,
			Model:        cfg.Model,
			Voice:        cfg.Voice,
			FrameSize:    cfg.FrameSize,
		},
		dialer,
		mic,
		renderer,
		session.Callbacks{
			OnStatusChange: func(status entities.SessionStatus) {
				fmt.Printf("\n[session %s]\n", status)
			},
			OnConversationUpdate: printLatestTurn,
			OnAISpeakingChange: func(speaking bool) {
				if speaking {
					fmt.Print("\n🔊 ")
				}
			},
			OnMicError: func(err error) {
				fmt.Fprintf(os.Stderr, "\nmicrophone error: %v\n", err)
			},
		},
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := controller.Start(ctx); err != nil {
		logger.Fatal("Failed to start practice session", zap.Error(err))
	}

	topic := *sessionContext
	if topic == "" {
		topic = "a general chat"
	}
	fmt.Printf("Practicing: %s\n", topic)
	fmt.Println("Speak into your microphone. Commands: m = mute/unmute, q = end session.")

	// Keyboard commands and signals both end the session.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	commands := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			commands <- strings.TrimSpace(scanner.Text())
		}
		close(commands)
	}()

loop:
	for {
		select {
		case <-quit:
			break loop
		case cmd, ok := <-commands:
			if !ok {
				break loop
			}
			switch cmd {
			case "m":
				if controller.ToggleMute() {
					fmt.Println("🔇 muted")
				} else {
					fmt.Println("🎤 live")
				}
			case "q":
				break loop
			}
		}
	}

	log := controller.End()
	renderer.Close()

	fmt.Printf("\nSession over. Score: %d/100 across %d messages.\n", log.Score, len(log.Conversation))
	for _, msg := range log.Conversation {
		if msg.Sender == entities.MessageSenderUser && msg.HasFeedback() {
			fmt.Printf("  You said: %q\n", msg.Text)
			if msg.Correction != "" {
				fmt.Printf("    Better: %s\n", msg.Correction)
			}
			if msg.AccentFeedback != "" {
				fmt.Printf("    Accent: %s\n", msg.AccentFeedback)
			}
			if msg.ArabicTranslation != "" {
				fmt.Printf("    %s\n", msg.ArabicTranslation)
			}
		}
	}
}

// printLatestTurn prints only the newest transcript entries.
var printed int

func printLatestTurn(conversation []entities.Message) {
	for ; printed < len(conversation); printed++ {
		msg := conversation[printed]
		speaker := "You"
		if msg.Sender == entities.MessageSenderAI {
			speaker = "AI"
		}
		fmt.Printf("\n%s: %s\n", speaker, msg.Text)
		if msg.Encouragement != "" {
			fmt.Printf("   %s\n", msg.Encouragement)
		}
	}
}
