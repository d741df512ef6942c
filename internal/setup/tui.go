// Package setup provides the interactive first-run configuration
// wizard.
package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

type wizardConfig struct {
	ListenAddr   string   `yaml:"listen_addr"`
	SePayBaseURL string   `yaml:"sepay_base_url,omitempty"`
	SePayAPIKey  string   `yaml:"sepay_api_key,omitempty"`
	HTTPTimeout  string   `yaml:"http_timeout"`
	Currency     string   `yaml:"currency"`
	TLSDomains   []string `yaml:"tls_domains,omitempty"`
	TLSCacheDir  string   `yaml:"tls_cache_dir,omitempty"`
}

// RunTUI launches the terminal configuration wizard and writes
// config.yaml in the working directory.
func RunTUI() error {
	var (
		listenAddr string
		baseURL    string
		apiKey     string
		timeoutStr string
		currency   string
		confirm    bool
	)

	// defaults
	listenAddr = ":8000"
	timeoutStr = "30s"
	currency = "VND"

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FINKEITH CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set up your SePay banking gateway.\n"))

	fmt.Println(stepStyle.Render("STEP 1: SERVER"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen Address").
				Description("Address the banking API binds to (e.g. :8000)").
				Value(&listenAddr),
			huh.NewInput().
				Title("Currency").
				Description("Currency code reported in balance snapshots").
				Value(&currency),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FINKEITH CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: SEPAY PROVIDER"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("SePay Base URL").
				Description("Leave empty for the production API").
				Value(&baseURL),
			huh.NewInput().
				Title("SePay API Key").
				Description("Stored in config.yaml; prefer the SEPAY_API_KEY env var in production").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewInput().
				Title("HTTP Timeout").
				Description("Timeout for outbound SePay requests (e.g. 30s)").
				Value(&timeoutStr).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("FINKEITH CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: CONFIRM"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Write config.yaml?").
				Affirmative("Write it").
				Negative("Cancel").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Aborted, nothing written."))
		return nil
	}

	out, err := yaml.Marshal(wizardConfig{
		ListenAddr:   listenAddr,
		SePayBaseURL: baseURL,
		SePayAPIKey:  apiKey,
		HTTPTimeout:  timeoutStr,
		Currency:     currency,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile("config.yaml", out, 0o600); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render("config.yaml written. Start the gateway with: finkeith --config config.yaml"))
	return nil
}
