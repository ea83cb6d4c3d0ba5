// ABOUTME: Fake legisbot backend for local development and manual TUI testing
// ABOUTME: Serves the API under /api with seeded accounts and canned Markdown answers

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/2389/legisbot/internal/api"
	"github.com/2389/legisbot/internal/backendtest"
)

func main() {
	addr := flag.String("addr", "localhost:8000", "HTTP listen address")
	adminEmail := flag.String("admin", "admin@legisbot.local", "Seeded admin email")
	memberEmail := flag.String("member", "socio@legisbot.local", "Seeded member email")
	password := flag.String("password", "legisbot", "Password for the seeded accounts")
	latency := flag.Duration("latency", 0, "Artificial latency added to /chat/query")
	flag.Parse()

	if err := run(*addr, *adminEmail, *memberEmail, *password, *latency); err != nil {
		log.Fatal(err)
	}
}

func run(addr, adminEmail, memberEmail, password string, latency time.Duration) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	srv := backendtest.New(backendtest.Options{
		TokenTTL: 24 * time.Hour,
		Logger:   logger,
	})
	if _, err := srv.AddUser(adminEmail, password, api.RoleAdmin, true); err != nil {
		return err
	}
	if _, err := srv.AddUser(memberEmail, password, api.RoleMember, true); err != nil {
		return err
	}
	srv.AddContext("1", "Constitución Nacional")
	srv.AddContext("2", "Código Civil y Comercial")
	srv.SetAnswer(cannedAnswer)
	if latency > 0 {
		srv.DelayPath("/chat/query", latency)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(os.Stderr, "fake backend on http://%s%s (admin: %s, member: %s)\n", addr, backendtest.Prefix, adminEmail, memberEmail)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func cannedAnswer(query, contextName string) (string, []api.Source) {
	lower := strings.ToLower(query)
	if strings.Contains(lower, "lista") || strings.Contains(lower, "artículos") {
		return "Los artículos relevantes son:\n\n- **Art. 14**: derechos civiles\n- **Art. 16**: igualdad ante la ley\n- **Art. 19**: acciones privadas\n",
			[]api.Source{{"source": "constitucion.pdf", "page": 3}, {"source": "constitucion.pdf", "page": 4}}
	}
	return backendtest.EchoAnswer(query, contextName)
}
