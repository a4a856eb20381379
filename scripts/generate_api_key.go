package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
)

func main() {
	name := flag.String("name", "", "Account display name (required)")
	flag.Parse()

	if *name == "" {
		fmt.Println("Error: --name is required")
		flag.PrintDefaults()
		os.Exit(1)
	}

	key, hash, prefix := generateAPIKey()

	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Println("🔑 API Key Generated")
	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Printf("Account:  %s\n", *name)
	fmt.Printf("\nAPI Key (show ONLY ONCE):\n%s\n", key)
	fmt.Printf("\nHash (store in database):\n%s\n", hash)
	fmt.Printf("\nPrefix (for display):\n%s\n", prefix)
	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Println("\n⚠️  Save the API key now! You won't be able to see it again.")
	fmt.Println("\nTo insert into database:")
	fmt.Printf("INSERT INTO account (id, name, api_key_hash, is_active)\n")
	fmt.Printf("VALUES (gen_random_uuid(), '%s', '%s', true);\n", *name, hash)
	fmt.Println("═══════════════════════════════════════════════════")
}

// generateAPIKey generates a new API key with hash and prefix
func generateAPIKey() (key, hash, prefix string) {
	// Generate 32 random bytes
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		panic(err)
	}
	randomStr := hex.EncodeToString(randomBytes)

	// Generate checksum (first 2 bytes of hash)
	checksumBytes := sha256.Sum256([]byte(randomStr))
	checksum := hex.EncodeToString(checksumBytes[:2])

	// Construct the key
	key = fmt.Sprintf("ak_%s_%s", randomStr, checksum)

	// Hash for storage
	hashBytes := sha256.Sum256([]byte(key))
	hash = hex.EncodeToString(hashBytes[:])

	// Prefix for display
	prefix = fmt.Sprintf("ak_%s...", randomStr[:8])

	return key, hash, prefix
}
