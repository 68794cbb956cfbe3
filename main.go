package main

import "github.com/frahmantamala/aims-commerce/cmd"

func main() {
	cmd.Execute()
}
