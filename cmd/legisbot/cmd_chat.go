// ABOUTME: Question, context listing and history commands
// ABOUTME: ask drives a conversation.Controller, one question or a REPL

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/legisbot/internal/api"
	"github.com/2389/legisbot/internal/conversation"
	"github.com/2389/legisbot/internal/history"
	"github.com/2389/legisbot/internal/route"
)

var (
	askContext  string
	historyHTML string
)

var askCmd = &cobra.Command{
	Use:   "ask [pregunta]",
	Short: "Hacer una consulta (sin argumentos abre un REPL)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if _, err := a.require(ctx, route.Chat); err != nil {
				return err
			}

			ctrl := conversation.NewController(a.client, a.logger)
			defer ctrl.Close()

			if askContext != "" {
				ctrl.LoadContexts(ctx)
				id, err := findContext(ctrl.Contexts(), askContext)
				if err != nil {
					return err
				}
				if err := ctrl.SelectContext(id); err != nil {
					return err
				}
			}

			if len(args) > 0 {
				ask(ctx, ctrl, strings.Join(args, " "))
				return nil
			}
			return repl(ctx, ctrl)
		})
	},
}

var contextsCmd = &cobra.Command{
	Use:   "contexts",
	Short: "Listar los contextos de documentos",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if _, err := a.require(ctx, route.Chat); err != nil {
				return err
			}
			contexts, err := a.client.ListContexts(ctx)
			if err != nil {
				return fmt.Errorf("listing contexts: %w", err)
			}
			if len(contexts) == 0 {
				color.Yellow("No hay contextos cargados.")
				return nil
			}
			for _, c := range contexts {
				fmt.Printf("%-12s %s\n", c.ID, c.Name)
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Mostrar las consultas anteriores",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if _, err := a.require(ctx, route.History); err != nil {
				return err
			}
			sessions := history.Fetch(ctx, a.client, a.logger)

			if historyHTML == "" {
				return history.Format(os.Stdout, sessions)
			}
			f, err := os.Create(historyHTML)
			if err != nil {
				return fmt.Errorf("creating %s: %w", historyHTML, err)
			}
			if err := history.ExportHTML(f, sessions); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			color.Green("Historial exportado a %s", historyHTML)
			return nil
		})
	},
}

func init() {
	askCmd.Flags().StringVar(&askContext, "context", "", "Contexto (id o nombre) al que limitar la consulta")
	historyCmd.Flags().StringVar(&historyHTML, "html", "", "Exportar el historial como HTML a este archivo")

	rootCmd.AddCommand(askCmd, contextsCmd, historyCmd)
}

func findContext(contexts []api.Context, want string) (api.ContextID, error) {
	for _, c := range contexts {
		if string(c.ID) == want || strings.EqualFold(c.Name, want) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", conversation.ErrUnknownContext, want)
}

// ask submits one question and prints its reconciled answer.
func ask(ctx context.Context, ctrl *conversation.Controller, question string) {
	done, ok := ctrl.Submit(ctx, question)
	if !ok {
		return
	}
	<-done

	entries := ctrl.Entries()
	answer := entries[len(entries)-1]
	fmt.Println(answer.Text)
	if labels := history.SourceLabels(answer.Sources); labels != "" {
		color.New(color.Faint).Printf("Fuentes: %s\n", labels)
	}
}

func repl(ctx context.Context, ctrl *conversation.Controller) error {
	prompt := color.New(color.FgCyan, color.Bold)
	for {
		prompt.Print("› ")
		line, err := stdin.ReadString('\n')
		if question := strings.TrimSpace(line); question != "" {
			ask(ctx, ctrl, question)
			fmt.Println()
		}
		if err != nil {
			fmt.Println()
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
