// authctl: CLI de operación contra un auth-svc corriendo.
//
// Ejemplos:
//
//	authctl health --base-url http://localhost:8000
//	authctl login-url
//	authctl whoami --token "$SESSION"
//	authctl repos --token "$SESSION"
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	token   string
)

func main() {
	root := &cobra.Command{
		Use:          "authctl",
		Short:        "Operación del servicio de auth de QuickDeploy",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&baseURL, "base-url", envOr("AUTHSVC_URL", "http://localhost:8000"), "URL base del servicio")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("AUTHSVC_TOKEN"), "JWT de sesión para rutas autenticadas")

	root.AddCommand(healthCmd(), loginURLCmd(), whoamiCmd(), reposCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Chequea /healthz y /readyz",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := get("/healthz", ""); err != nil {
				return err
			}
			return get("/readyz", "")
		},
	}
}

func loginURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login-url",
		Short: "Pide una URL de autorización de GitHub (con state fresco)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return get("/v1/auth/github/url", "")
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Muestra el usuario de la sesión",
		RunE: func(cmd *cobra.Command, args []string) error {
			return get("/v1/me", token)
		},
	}
}

func reposCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repos",
		Short: "Lista los repos de GitHub del usuario de la sesión",
		RunE: func(cmd *cobra.Command, args []string) error {
			return get("/v1/github/repos", token)
		},
	}
}

func get(path, bearer string) error {
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		return err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") == nil {
		body = pretty.Bytes()
	}
	fmt.Printf("%s %d\n%s\n", path, resp.StatusCode, body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s devolvió %d", path, resp.StatusCode)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
