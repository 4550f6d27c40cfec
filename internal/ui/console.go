// Package ui provides colorized console output for the sampler.
// Retry and rejection diagnostics go to the console before anything else
// happens, so an operator can see why a call is taking long.
package ui

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR DEFINITIONS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// Badge colors
	successBadge = color.New(color.BgGreen, color.FgBlack, color.Bold)
	warningBadge = color.New(color.FgYellow, color.Bold)
	errorBadge   = color.New(color.BgRed, color.FgWhite, color.Bold)
	infoBadge    = color.New(color.FgCyan, color.Bold)
	debugBadge   = color.New(color.FgMagenta)

	// Text colors
	successText = color.New(color.FgGreen, color.Bold)
	warningText = color.New(color.FgYellow)
	errorText   = color.New(color.FgRed)
	infoText    = color.New(color.FgCyan)
	mutedText   = color.New(color.FgHiBlack)
	accentText  = color.New(color.FgMagenta, color.Bold)
	neonBlue    = color.New(color.FgHiCyan, color.Bold)

	// Method colors
	methodPOST = color.New(color.BgHiMagenta, color.FgBlack, color.Bold)
	methodGET  = color.New(color.BgHiCyan, color.FgBlack, color.Bold)
)

// ══════════════════════════════════════════════════════════════════════════════
// SAMPLER DIAGNOSTICS
// ══════════════════════════════════════════════════════════════════════════════

// PrintRetry logs a failed vendor call that is about to be retried.
// Format: ⏳ [RETRY] sampler | trial N after Xs | error
func PrintRetry(sampler string, trial int, delay time.Duration, err error) {
	fmt.Fprint(color.Output, "⏳ ")
	warningBadge.Print("[RETRY]")
	fmt.Fprint(color.Output, " ")
	accentText.Print(sampler)
	mutedText.Print(" | ")
	warningText.Printf("rate limit exception so wait and retry %d after %s", trial, delay)
	mutedText.Print(" | ")
	errorText.Println(errString(err))
}

// PrintBadRequest logs a request the vendor rejected without retry.
// Format: 🚫 [BAD REQUEST] sampler | error
func PrintBadRequest(sampler string, err error) {
	fmt.Fprint(color.Output, "🚫 ")
	errorBadge.Print(" BAD REQUEST ")
	fmt.Fprint(color.Output, " ")
	accentText.Print(sampler)
	mutedText.Print(" | ")
	errorText.Println(errString(err))
}

// PrintSample logs a finished sample with its token usage.
// Format: [OK] sampler | in:N out:M | latency
func PrintSample(sampler string, inputTokens, outputTokens int, latency time.Duration) {
	successBadge.Print(" OK ")
	fmt.Fprint(color.Output, " ")
	accentText.Print(sampler)
	mutedText.Print(" | ")
	infoText.Printf("in:%d out:%d", inputTokens, outputTokens)
	mutedText.Print(" | ")
	printLatency(latency)
	fmt.Fprintln(color.Output)
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST LOGGING
// ══════════════════════════════════════════════════════════════════════════════

// PrintRequest logs a gateway request with styled output.
func PrintRequest(method, path string, status int, latency time.Duration, requestID string) {
	mutedText.Printf("%s ", time.Now().Format("15:04:05"))

	printMethodBadge(method)
	fmt.Fprint(color.Output, " ")

	fmt.Fprintf(color.Output, "%-30s ", truncatePath(path, 30))

	printStatusBadge(status)
	fmt.Fprint(color.Output, " ")

	printLatency(latency)
	fmt.Fprint(color.Output, " ")

	if requestID != "" {
		mutedText.Printf("id:%s", shortID(requestID))
	}

	fmt.Fprintln(color.Output)
}

func printMethodBadge(method string) {
	switch method {
	case "POST":
		methodPOST.Printf(" %s ", method)
	case "GET":
		methodGET.Printf(" %s ", method)
	default:
		debugBadge.Printf(" %s ", method)
	}
}

func printStatusBadge(status int) {
	switch {
	case status >= 200 && status < 300:
		successBadge.Printf(" %d ", status)
	case status >= 300 && status < 400:
		infoBadge.Printf(" %d ", status)
	case status >= 400 && status < 500:
		warningBadge.Printf(" %d ", status)
	default:
		errorBadge.Printf(" %d ", status)
	}
}

// printLatency prints latency with color gradient.
// Green: < 1s, Yellow: < 10s, Red: >= 10s
func printLatency(latency time.Duration) {
	ms := latency.Milliseconds()
	latencyStr := fmt.Sprintf("%6dms", ms)

	switch {
	case ms < 1000:
		successText.Print(latencyStr)
	case ms < 10000:
		warningText.Print(latencyStr)
	default:
		errorText.Print(latencyStr)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// UTILITY FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// shortID returns the first 8 characters of an identifier.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// truncatePath truncates a path to maxLen characters.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return path[:maxLen-3] + "..."
}

// ══════════════════════════════════════════════════════════════════════════════
// STARTUP MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

// PrintStartupInfo prints styled gateway startup information.
func PrintStartupInfo(host string, port int, samplers []string) {
	fmt.Fprintln(color.Output)
	infoBadge.Print("[SAMPLER]")
	fmt.Fprint(color.Output, " Gateway listening on ")
	neonBlue.Printf("http://%s:%d\n", host, port)

	infoBadge.Print("[SAMPLER]")
	fmt.Fprint(color.Output, " Samplers: ")
	if len(samplers) > 0 {
		successText.Println(fmt.Sprint(samplers))
	} else {
		errorText.Println("none")
	}

	fmt.Fprintln(color.Output)
	printEndpoints()
}

func printEndpoints() {
	mutedText.Println("  ┌──────────────────────────────────────────────────────────────┐")
	mutedText.Print("  │ ")
	methodPOST.Print(" POST ")
	fmt.Fprint(color.Output, " /v1/samplers/:name/sample ")
	mutedText.Print("  Sample a message list         ")
	mutedText.Println(" │")

	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Fprint(color.Output, " /v1/samplers              ")
	mutedText.Print("  List samplers                 ")
	mutedText.Println(" │")

	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Fprint(color.Output, " /v1/usage                 ")
	mutedText.Print("  Token usage per sampler       ")
	mutedText.Println(" │")

	mutedText.Print("  │ ")
	methodGET.Print(" GET  ")
	fmt.Fprint(color.Output, " /health                   ")
	mutedText.Print("  Health check                  ")
	mutedText.Println(" │")

	mutedText.Println("  └──────────────────────────────────────────────────────────────┘")
	fmt.Fprintln(color.Output)
}

// PrintShutdown prints a styled shutdown message.
func PrintShutdown() {
	fmt.Fprintln(color.Output)
	warningBadge.Print("[SHUTDOWN]")
	warningText.Println(" Graceful shutdown initiated...")
}

// PrintGoodbye prints a styled goodbye message.
func PrintGoodbye() {
	successBadge.Print(" OK ")
	fmt.Fprint(color.Output, " ")
	successText.Println("Gateway stopped.")
}
