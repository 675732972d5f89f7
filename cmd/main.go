package main

import "shop-service/internal/cmd"

func main() {
	cmd.Execute()
}
