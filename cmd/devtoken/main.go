// Command devtoken prints a signed bearer token for local testing against
// a server that shares JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/iliyamo/club-membership/internal/config"
	"github.com/iliyamo/club-membership/internal/model"
	"github.com/iliyamo/club-membership/internal/utils"
)

func main() {
	uid := flag.String("uid", "", "member uid (token subject)")
	role := flag.String("role", model.RoleMember, "MEMBER, ADMIN or SUPER_ADMIN")
	email := flag.String("email", "", "email claim")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to ACCESS_TOKEN_TTL_MIN)")
	flag.Parse()

	cfg, err := config.LoadToken()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *uid == "" {
		fmt.Fprintln(os.Stderr, "usage: devtoken -uid <uid> [-role ADMIN] [-email a@b.c] [-ttl 1h]")
		os.Exit(2)
	}
	if !model.ValidRole(*role) {
		log.Fatalf("unknown role %q", *role)
	}
	if *ttl == 0 {
		*ttl = time.Duration(cfg.AccessTTLMin) * time.Minute
	}
	tok, err := utils.NewAccessToken(cfg.JWTSecret, *uid, *role, *email, *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(tok.Token)
}
