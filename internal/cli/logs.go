package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sycdan/devexy/internal/appdir"
)

func logFilePath() (string, error) {
	dir, err := appdir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "app.log"), nil
}

func newLogsCmd(a *app) *cobra.Command {
	var lines int
	var follow bool
	var updateInterval time.Duration

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display the last N lines of the log file, or follow it",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()

			path, err := logFilePath()
			if err != nil {
				return fail(err.Error())
			}

			if follow {
				return followLogFile(cmd.Context(), path, out, errOut, updateInterval)
			}
			return tailLogFile(path, out, errOut, lines)
		},
	}

	cmd.Flags().IntVar(&lines, "lines", 20, "number of lines to display")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "follow the log file")
	cmd.Flags().DurationVar(&updateInterval, "update-interval", 100*time.Millisecond, "polling interval while following")
	return cmd
}

// tailLogFile prints the last n lines of the log file at path, matching the
// predecessor's readlines()[-lines:] behavior.
func tailLogFile(path string, out, errOut io.Writer, n int) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		fmt.Fprintf(errOut, "Log file not found: %s\n", path)
		return nil
	}
	if err != nil {
		return fail(err.Error())
	}

	all := splitLines(string(data))
	start := len(all) - n
	if start < 0 {
		start = 0
	}
	for _, line := range all[start:] {
		fmt.Fprintln(out, line)
	}
	return nil
}

// followLogFile seeks to the end of the log file and prints new lines as
// they are appended, polling at updateInterval until ctx is cancelled, then
// prints a line/duration summary. The root command runs with a context that
// is never cancelled, so an interrupt (Ctrl-C) ends the process through the
// cleanup package's signal handler and the summary line is not printed.
func followLogFile(ctx context.Context, path string, out, errOut io.Writer, updateInterval time.Duration) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		fmt.Fprintf(errOut, "Log file not found: %s\n", path)
		return nil
	}
	if err != nil {
		return fail(err.Error())
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fail(err.Error())
	}

	reader := bufio.NewReader(f)
	ticker := time.NewTicker(updateInterval)
	defer ticker.Stop()

	lineCount := 0
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(out, "Logged %d lines in %.2f seconds.\n", lineCount, time.Since(start).Seconds())
			return nil
		case <-ticker.C:
			for {
				line, err := reader.ReadString('\n')
				if line != "" {
					fmt.Fprint(out, line)
					if line[len(line)-1] == '\n' {
						lineCount++
					}
				}
				if err != nil {
					break
				}
			}
		}
	}
}

func splitLines(content string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			lines = append(lines, content[start:i])
			start = i + 1
		}
	}
	if start < len(content) {
		lines = append(lines, content[start:])
	}
	return lines
}
