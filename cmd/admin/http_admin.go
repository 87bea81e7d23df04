package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func urlFlag(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs, fs.String("url", "http://127.0.0.1:8080", "server base url")
}

// callAdmin performs one admin request and prints the indented JSON body.
// Non-2xx responses exit with status 1.
func callAdmin(method, baseURL, path string, timeout time.Duration) {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/") + path
	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(2)
	}
	resp, err := (&http.Client{Timeout: timeout}).Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "request:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") == nil {
		body = pretty.Bytes()
	}
	fmt.Println(strings.TrimSpace(string(body)))
	if resp.StatusCode/100 != 2 {
		fmt.Fprintf(os.Stderr, "%s %s: %s\n", method, path, resp.Status)
		os.Exit(1)
	}
}

func statusCmd(args []string) {
	fs, baseURL := urlFlag("status")
	_ = fs.Parse(args)
	callAdmin(http.MethodGet, *baseURL, "/admin/v1/status", 5*time.Second)
}

// advanceCmd ends the current phase early.
func advanceCmd(args []string) {
	fs, baseURL := urlFlag("advance")
	_ = fs.Parse(args)
	callAdmin(http.MethodPost, *baseURL, "/admin/v1/advance", 10*time.Second)
}
