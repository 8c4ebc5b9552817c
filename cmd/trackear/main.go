package main

import "timetrack-invoicing-backend/internal/cli"

func main() {
	cli.Execute()
}
