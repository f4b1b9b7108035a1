package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/velomarket/marketplace-auth/internal/client/session"
	"github.com/velomarket/marketplace-auth/pkg/logger"
)

// Demo client: restores a stored session, logs in when there is none and
// then follows every lifecycle transition until interrupted. The manager
// keeps the credential fresh in the background.
func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8080", "auth server base URL")
		credPath  = flag.String("credential-file", defaultCredentialPath(), "where the credential is stored")
		logout    = flag.Bool("logout", false, "log out and exit")
	)
	flag.Parse()

	log := logger.Init(logger.Options{Level: "warn", Pretty: true, Service: "marketplace-auth-client"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager := session.NewManager(
		session.NewHTTPAPI(*serverURL),
		session.NewFileStorage(*credPath),
		session.WithLogger(log),
	)
	defer manager.Close()

	updates := manager.Subscribe()
	if err := manager.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "start:", err)
		os.Exit(1)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-updates:
			printSnapshot(snap)

			switch snap.State {
			case session.Authenticated:
				if *logout {
					manager.Logout(ctx)
				}
			case session.Anonymous:
				if *logout {
					return
				}
				email, password, err := promptCredentials()
				if err != nil {
					fmt.Fprintln(os.Stderr, "prompt:", err)
					return
				}
				if err := manager.Login(ctx, email, password); err != nil {
					fmt.Fprintln(os.Stderr, "login:", err)
					return
				}
			case session.LoggedOut:
				return
			}
		}
	}
}

func printSnapshot(snap session.Snapshot) {
	switch {
	case snap.Identity != nil:
		fmt.Printf("[%s] %s <%s> (%s)\n", snap.State, snap.Identity.FirstName, snap.Identity.Email, snap.Identity.Role)
	case snap.Err != nil:
		fmt.Printf("[%s] %v\n", snap.State, snap.Err)
	default:
		fmt.Printf("[%s]\n", snap.State)
	}
}

func promptCredentials() (string, string, error) {
	fmt.Print("email: ")
	reader := bufio.NewReader(os.Stdin)
	email, err := reader.ReadString('\n')
	if err != nil {
		return "", "", err
	}

	fmt.Print("password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", err
	}

	return strings.TrimSpace(email), string(password), nil
}

func defaultCredentialPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".marketplace-credential"
	}
	return filepath.Join(home, ".marketplace-credential")
}
