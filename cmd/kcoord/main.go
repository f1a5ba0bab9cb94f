package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"kcoord/pkg/logging"
)

var errorBadge = lipgloss.NewStyle().
	Background(lipgloss.Color("#EF4444")).
	Foreground(lipgloss.Color("#F8FAFC")).
	Bold(true).
	Padding(0, 1)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := newRootCmd().ExecuteContext(ctx)
	_ = logging.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorBadge.Render("ERROR"), err)
		os.Exit(1)
	}
}
