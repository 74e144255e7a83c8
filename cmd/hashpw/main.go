// Command hashpw prints the bcrypt hash of a password, for use as the
// ADMIN_PASSWORD_HASH environment variable.
package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/animecon/program-sync/internal/utils"
)

func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <password>", os.Args[0])
	}
	hash, err := utils.HashPassword(os.Args[1], bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	fmt.Println(hash)
}
