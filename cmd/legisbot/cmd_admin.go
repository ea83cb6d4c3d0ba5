// ABOUTME: Admin commands: PDF upload and usage statistics
// ABOUTME: Both are gated by the admin-only routes

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/legisbot/internal/admin"
	"github.com/2389/legisbot/internal/api"
	"github.com/2389/legisbot/internal/route"
)

var uploadContext string

var uploadCmd = &cobra.Command{
	Use:   "upload <archivo.pdf>",
	Short: "Subir un documento PDF a un contexto (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if _, err := a.require(ctx, route.AdminUpload); err != nil {
				return err
			}
			text, err := admin.NewUploader(a.client, a.logger).Upload(ctx, args[0], uploadContext)
			if err != nil {
				if errors.Is(err, admin.ErrNoFile) || errors.Is(err, admin.ErrNotPDF) {
					return err
				}
				return errors.New(api.Message(err, "Error al subir"))
			}
			color.Green("%s", text)
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Mostrar estadísticas de uso (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			if _, err := a.require(ctx, route.AdminStats); err != nil {
				return err
			}
			stats := admin.NewDashboard(a.client, 0, a.logger).Load(ctx)
			printStats(stats)
			return nil
		})
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadContext, "context", "", "Nombre del contexto")
	rootCmd.AddCommand(uploadCmd, statsCmd)
}

func printStats(s admin.Stats) {
	color.New(color.FgCyan, color.Bold).Printf("Consultas en los últimos 30 días: %d\n", s.TotalQueries())
	printGroups("Usuarios por país", s.ByCountry)
	printGroups("Usuarios por profesión", s.ByOccupation)

	section("Consultas por día")
	if !s.Usage.Available {
		color.Yellow("  No disponible")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, d := range s.Usage.Data {
			fmt.Fprintf(w, "  %s\t%d\n", d.Date, d.Count)
		}
		w.Flush()
	}

	printGroups("Consultas más frecuentes", s.TopQueries)
}

func section(title string) {
	fmt.Println()
	color.New(color.FgYellow).Println(title)
}

func printGroups(title string, w admin.Widget[api.GroupCount]) {
	section(title)
	switch {
	case !w.Available:
		color.Yellow("  No disponible")
	case len(w.Data) == 0:
		fmt.Println("  Sin datos")
	default:
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, g := range w.Data {
			fmt.Fprintf(tw, "  %s\t%d\n", g.Group, g.Count)
		}
		tw.Flush()
	}
}
