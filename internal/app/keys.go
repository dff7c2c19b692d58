package app

import (
	"crypto/rsa"
	"fmt"
	"log/slog"
	"os"

	"github.com/copperline/streamgate/pkg/cryptox"
	"github.com/copperline/streamgate/pkg/jwtx"
)

// KeyMaterial is every cryptographic dependency the service holds: built once
// at startup, immutable afterwards, passed by reference into whatever needs
// it. Nothing reaches for key state through globals.
type KeyMaterial struct {
	Signer   *jwtx.Signer
	Verifier *jwtx.Verifier
	Envelope *cryptox.Envelope
}

// InitKeyMaterial loads (or in dev mode, generates) the RSA signing pair and
// the symmetric master key. Missing or malformed material in file mode is
// fatal: starting without working keys would only defer the failure to the
// first request.
func InitKeyMaterial(cfg Config, logger *slog.Logger) (*KeyMaterial, error) {
	switch cfg.KeyMode {
	case "dev":
		logger.Warn("dev key mode: generating ephemeral keys; " +
			"all issued tokens and encrypted fields become unreadable on restart")

		pemKey, err := cryptox.GenerateRSAKey(2048)
		if err != nil {
			return nil, err
		}
		privateKey, err := cryptox.ParseRSAPrivateKeyPEM(pemKey)
		if err != nil {
			return nil, err
		}
		masterKey, err := cryptox.GenerateMasterKey()
		if err != nil {
			return nil, err
		}
		return assemble(cfg, privateKey, masterKey)

	case "file":
		if cfg.PrivateKeyFile == "" || cfg.PublicKeyFile == "" || cfg.MasterKey == "" {
			return nil, fmt.Errorf("file key mode requires STREAMGATE_PRIVATE_KEY_FILE, " +
				"STREAMGATE_PUBLIC_KEY_FILE and STREAMGATE_MASTER_KEY")
		}

		privPEM, err := os.ReadFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		privateKey, err := cryptox.ParseRSAPrivateKeyPEM(privPEM)
		if err != nil {
			return nil, err
		}

		// The public key file is parsed even though the verifier could be
		// derived from the private key: a mismatched pair at startup is a
		// deployment error worth failing on.
		pubPEM, err := os.ReadFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		publicKey, err := cryptox.ParseRSAPublicKeyPEM(pubPEM)
		if err != nil {
			return nil, err
		}
		if publicKey.N.Cmp(privateKey.PublicKey.N) != 0 || publicKey.E != privateKey.PublicKey.E {
			return nil, fmt.Errorf("public key file does not match the private key")
		}

		logger.Info("key material loaded",
			"private_key_file", cfg.PrivateKeyFile,
			"public_key_file", cfg.PublicKeyFile,
		)
		return assemble(cfg, privateKey, cfg.MasterKey)

	default:
		return nil, fmt.Errorf("unknown key mode %q (want \"file\" or \"dev\")", cfg.KeyMode)
	}
}

func assemble(cfg Config, privateKey *rsa.PrivateKey, masterKeyB64 string) (*KeyMaterial, error) {
	signer, err := jwtx.NewSigner(privateKey)
	if err != nil {
		return nil, err
	}
	verifier, err := jwtx.NewVerifier(signer.PublicKey(), cfg.Issuer)
	if err != nil {
		return nil, err
	}
	envelope, err := cryptox.NewEnvelopeFromBase64(masterKeyB64)
	if err != nil {
		return nil, err
	}
	return &KeyMaterial{Signer: signer, Verifier: verifier, Envelope: envelope}, nil
}
