// ABOUTME: Session commands: login, register, onboard, logout and whoami
// ABOUTME: Prompts read from stdin; passwords are read without echo on a terminal

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/2389/legisbot/internal/api"
	"github.com/2389/legisbot/internal/auth"
	"github.com/2389/legisbot/internal/route"
)

var (
	loginEmail    string
	registerName  string
	registerEmail string
	onboardFlags  api.Profile
)

// stdin is shared so prompts and piped input read from one buffer.
var stdin = bufio.NewReader(os.Stdin)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Iniciar sesión",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			email, err := orPrompt(loginEmail, "Email: ")
			if err != nil {
				return err
			}
			password, err := promptSecret("Contraseña: ")
			if err != nil {
				return err
			}

			user, err := a.session.Login(ctx, email, password)
			if err != nil {
				if errors.Is(err, api.ErrUnauthorized) {
					return errors.New("Email o contraseña incorrectos")
				}
				return errors.New(api.Message(err, "no se pudo iniciar sesión"))
			}
			if user == nil {
				return errors.New("sesión iniciada, pero no se pudo obtener el usuario")
			}
			color.Green("Hola, %s", user.Label())
			return nextStep(user)
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Crear una cuenta",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			name, err := orPrompt(registerName, "Nombre: ")
			if err != nil {
				return err
			}
			email, err := orPrompt(registerEmail, "Email: ")
			if err != nil {
				return err
			}
			password, err := promptSecret("Contraseña: ")
			if err != nil {
				return err
			}

			user, err := a.session.Register(ctx, api.Registration{Name: name, Email: email, Password: password})
			if err != nil {
				return errors.New(api.Message(err, "no se pudo crear la cuenta"))
			}
			color.Green("Cuenta creada para %s", user.Label())
			return nextStep(user)
		})
	},
}

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Completar el perfil",
	Long: `Completes the one-time profile. Missing fields are prompted for.

Provinces: ` + strings.Join(api.Provinces, ", "),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			a.session.Bootstrap(ctx)
			user := a.session.CurrentUser()
			if user == nil {
				return errNotLoggedIn
			}
			if user.OnboardingComplete {
				color.Yellow("El perfil ya está completo.")
				return nil
			}

			profile, err := promptProfile(onboardFlags)
			if err != nil {
				return err
			}
			user, err = a.session.CompleteOnboarding(ctx, profile)
			if err != nil {
				return errors.New(api.Message(err, "no se pudo guardar el perfil"))
			}
			color.Green("Perfil completo. Bienvenido/a, %s", user.Label())
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Cerrar sesión",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			a.session.Logout(ctx)
			color.Green("Sesión cerrada.")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Mostrar el usuario actual",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			user, err := a.require(ctx, route.Dashboard)
			if err != nil {
				return err
			}

			label := color.New(color.FgCyan)
			label.Print("Usuario:  ")
			fmt.Printf("%s <%s>\n", user.Label(), user.Email)
			label.Print("Rol:      ")
			fmt.Println(user.Role)
			label.Print("Perfil:   ")
			if user.OnboardingComplete {
				fmt.Println("completo")
			} else {
				color.Yellow("pendiente")
			}

			token, loadErr := a.store.Load(ctx)
			if loadErr != nil || token == "" {
				return nil
			}
			claims, inspectErr := auth.Inspect(token)
			if inspectErr != nil || claims.ExpiresAt.IsZero() {
				return nil
			}
			label.Print("Vence:    ")
			fmt.Printf("%s (en %s)\n", claims.ExpiresAt.Local().Format(time.DateTime), time.Until(claims.ExpiresAt).Round(time.Minute))
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Email")
	registerCmd.Flags().StringVar(&registerName, "name", "", "Nombre")
	registerCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "Email")

	f := onboardCmd.Flags()
	f.StringVar(&onboardFlags.FirstName, "nombre", "", "Nombre")
	f.StringVar(&onboardFlags.LastName, "apellido", "", "Apellido")
	f.StringVar(&onboardFlags.Country, "pais", api.DefaultCountry, "País")
	f.StringVar(&onboardFlags.Province, "provincia", "", "Provincia")
	f.StringVar(&onboardFlags.Locality, "localidad", "", "Localidad")
	f.IntVar(&onboardFlags.Age, "edad", 0, "Edad")
	f.StringVar(&onboardFlags.Occupation, "profesion", "", "Profesión")

	rootCmd.AddCommand(loginCmd, registerCmd, onboardCmd, logoutCmd, whoamiCmd)
}

// nextStep tells a freshly authenticated user where they would land.
func nextStep(user *api.User) error {
	if route.Landing(user) == route.Onboarding {
		color.Yellow("Tu perfil está incompleto: ejecutá 'legisbot onboard'.")
	}
	return nil
}

func orPrompt(value, prompt string) (string, error) {
	if value = strings.TrimSpace(value); value != "" {
		return value, nil
	}
	return promptLine(prompt)
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo on a terminal, or a plain line otherwise.
func promptSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := promptLine(prompt)
		return line, err
	}
	fmt.Print(prompt)
	b, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}

func promptProfile(p api.Profile) (api.Profile, error) {
	var err error
	fields := []struct {
		dst    *string
		prompt string
	}{
		{&p.FirstName, "Nombre: "},
		{&p.LastName, "Apellido: "},
		{&p.Country, "País: "},
		{&p.Province, "Provincia: "},
		{&p.Locality, "Localidad: "},
		{&p.Occupation, "Profesión: "},
	}
	for _, f := range fields {
		if *f.dst, err = orPrompt(*f.dst, f.prompt); err != nil {
			return p, err
		}
	}
	if p.Age == 0 {
		raw, err := promptLine("Edad: ")
		if err != nil {
			return p, err
		}
		if p.Age, err = strconv.Atoi(raw); err != nil {
			return p, errors.New("la edad debe ser un número")
		}
	}
	return p, api.Validate(p)
}
