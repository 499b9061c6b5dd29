// Package main prints a bcrypt hash of the password read from stdin, for use as
// ADMIN_PASSWORD_HASH or VIEWER_PASSWORD_HASH.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/partnerbot/backend/pkg/utils"
)

func main() {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(os.Stderr, "read password:", err)
		os.Exit(1)
	}
	hashed, err := utils.HashPassword(strings.TrimRight(line, "\r\n"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(hashed)
}
