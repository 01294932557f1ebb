/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	zap.S().Infof(format, args...)
}

// drainErrors logs handler write failures until done is closed.
func drainErrors(errs <-chan error, done <-chan struct{}) {
	for {
		select {
		case err := <-errs:
			zap.S().Warnw("SERVE: response failed", "error", err)
		case <-done:
			return
		}
	}
}

func newPage(cfg *Config, title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon(cfg))
	htmlBody.WriteString(fmt.Sprintf(`<link rel="stylesheet" href="%s/assets/liar/app.css">`, cfg.prefix))
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", html.EscapeString(title)))
	htmlBody.WriteString(fmt.Sprintf("<body><main><p>%s</p><p><a href=\"%s/\">Back</a></p></main></body></html>",
		html.EscapeString(body), cfg.prefix))

	return htmlBody.String()
}
