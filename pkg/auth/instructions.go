package auth

import (
	"fmt"
	"strings"
)

// ShowTokenGuide prints how to create a GitHub token for the scraper
func ShowTokenGuide() {
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("GITHUB TOKEN GUIDE")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()
	fmt.Println("Anonymous requests are limited to 60 per hour and the search API to")
	fmt.Println("10 per minute. A personal access token raises this to 5000 per hour.")
	fmt.Println()
	fmt.Println("STEP 1: Open https://github.com/settings/tokens")
	fmt.Println("STEP 2: Choose 'Generate new token' (fine-grained or classic)")
	fmt.Println("STEP 3: No scopes are needed; public data is all the scraper reads")
	fmt.Println("STEP 4: Copy the token (it starts with ghp_ or github_pat_)")
	fmt.Println()
	fmt.Println("Then run: ghscraper auth login <name>")
	fmt.Println()
	fmt.Println("The token is kept in the system keychain when one is available,")
	fmt.Println("otherwise in an encrypted file. Set GHSCRAPER_PASSPHRASE to choose")
	fmt.Println("the encryption passphrase yourself.")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()
}
