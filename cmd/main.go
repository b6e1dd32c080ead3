package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
	flag "github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/shpavel7/hik-log-dump-raw/internal/config"
	"github.com/shpavel7/hik-log-dump-raw/internal/dumper"
	"github.com/shpavel7/hik-log-dump-raw/internal/hikclient"
)

// Recorders are slow to assemble large pages; 15s leaves headroom without
// letting a dead box hang the run forever.
const requestTimeout = 15 * time.Second

func main() {
	out := flag.StringP("out", "o", "hik_logs_raw.xml", "Output filename")
	batch := flag.Int("batch", 100, "Rows per page. Try 256/512/1024 to squeeze more rows into the 20-page window")
	password := flag.String("password", "", "The password to use. Prompted for when not given")
	useTLS := flag.Bool("tls", false, "Talk HTTPS to the recorder (most NVRs speak plain HTTP)")
	insecure := flag.BoolP("insecure", "k", false, "Set this to ignore TLS verification")
	gzipOut := flag.BoolP("gzip", "z", false, "Gzip-compress the output file")
	verbose := flag.BoolP("verbose", "v", false, "Enable verbose logging")
	help := flag.BoolP("help", "h", false, "Show help")
	flag.Parse()

	// Configure slog based on verbose flag
	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelInfo)
	}

	if *help {
		printUsage()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) != 4 {
		printUsage()
		os.Exit(1)
	}
	host, user := args[0], args[1]

	start, err := parseWhen(args[2], true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	end, err := parseWhen(args[3], false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if end.Before(start) {
		fmt.Fprintln(os.Stderr, "END must not be before START")
		os.Exit(1)
	}
	// END is inclusive on the CLI; the dumper works on [start, end).
	end = end.Add(time.Second)

	if *batch < 1 {
		fmt.Fprintln(os.Stderr, "--batch must be at least 1")
		os.Exit(1)
	}

	// Load environment variables
	if *password == "" {
		*password = os.Getenv("HIK_PASSWORD")
	}
	if *password == "" {
		*password, err = promptPassword(user, host)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	clientConfig := config.ClientConfig{
		Host:      host,
		Username:  user,
		Password:  *password,
		UseTLS:    *useTLS,
		VerifyTLS: !*insecure,
		Timeout:   requestTimeout,
	}
	client := hikclient.NewClient(clientConfig)

	dumperConfig := config.DumperConfig{
		PageSize: *batch,
		Filename: *out,
		Gzip:     *gzipOut,
	}

	outputFile, err := os.Create(dumperConfig.Filename)
	if err != nil {
		slog.Error("Failed to create output file", "error", err, "filename", dumperConfig.Filename)
		os.Exit(1)
	}

	var sink io.Writer = outputFile
	var gzWriter *gzip.Writer
	if dumperConfig.Gzip {
		gzWriter = gzip.NewWriter(outputFile)
		sink = gzWriter
	}

	slog.Info("Downloading raw log XML", "host", host, "start", start, "end", end, "filename", dumperConfig.Filename, "batch", dumperConfig.PageSize)

	d := dumper.NewDumper(client, sink, dumperConfig)
	err = d.DumpRange(start, end)

	// Flush and close in any case: a failed run keeps whatever pages were
	// already written, it is just not guaranteed complete.
	if gzWriter != nil {
		if closeErr := gzWriter.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	if closeErr := outputFile.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		slog.Error("Failed to download logs", "error", err, "filename", dumperConfig.Filename)
		os.Exit(1)
	}

	stats := d.Stats()
	slog.Info("Download completed successfully", "filename", dumperConfig.Filename, "windows", stats.Windows, "splits", stats.Splits, "pages", stats.Pages, "bytes", stats.Bytes)
}

func printUsage() {
	fmt.Println("Usage: hik-log-dump-raw [options] HOST USER START END")
	fmt.Println("START and END accept YYYY-MM-DD or YYYY-MM-DDTHH:MM[:SS]; END is inclusive.")
	flag.PrintDefaults()
}

var whenLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04"}

// parseWhen handles a plain date or a full timestamp. A date-only END means
// the whole day, so it expands to 23:59:59.
func parseWhen(s string, isStart bool) (time.Time, error) {
	if len(s) == len("2006-01-02") {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date/time %q: %w", s, err)
		}
		if !isStart {
			t = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		}
		return t, nil
	}
	for _, layout := range whenLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date/time %q", s)
}

func promptPassword(user, host string) (string, error) {
	fmt.Fprintf(os.Stderr, "Password for %s@%s: ", user, host)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}
