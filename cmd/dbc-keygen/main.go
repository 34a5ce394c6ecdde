// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command dbc-keygen generates an ed25519 key pair for signing diff
// reports (internal/signing), the same way the teacher's gen-keypair
// tool generates keys for JWT session signing.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

func main() {
	// rand.Reader uses /dev/urandom on Linux.
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "DBC_REPORT_PUBLIC_KEY=%s\nDBC_REPORT_PRIVATE_KEY=%s\n",
		base64.StdEncoding.EncodeToString(pub),
		base64.StdEncoding.EncodeToString(priv))
	fmt.Println("Put these in .env. Use dbc-tool's -sign flag to sign diff reports with this key pair.")
}
