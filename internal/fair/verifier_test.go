package fair

import (
	"testing"

	"dice-game-backend/internal/models"
)

func TestVerifySoundness(t *testing.T) {
	serverSeed := "d07cbf24b54b41f63a425ddd2c4402fcbba91aae2bdb45b8af9f5def4ea286e5"
	clientSeed := "client123"
	nonce := int64(0)

	hash := HashSeed(serverSeed)
	roll, err := Derive(serverSeed, clientSeed, nonce)
	if err != nil {
		t.Fatalf("Derive() error: %v", err)
	}

	result := Verify(serverSeed, hash, clientSeed, nonce, roll)
	if !result.Valid {
		t.Fatalf("honest inputs rejected: %+v", result)
	}
	if result.ExpectedRoll != roll {
		t.Errorf("ExpectedRoll = %v, want %v", result.ExpectedRoll, roll)
	}
}

// Mutating any one of the disclosed inputs must flip valid to false.
func TestVerifyDetectsTampering(t *testing.T) {
	serverSeed := "d07cbf24b54b41f63a425ddd2c4402fcbba91aae2bdb45b8af9f5def4ea286e5"
	clientSeed := "client123"
	nonce := int64(5)

	hash := HashSeed(serverSeed)
	roll, _ := Derive(serverSeed, clientSeed, nonce)

	tests := []struct {
		name       string
		serverSeed string
		hash       string
		clientSeed string
		nonce      int64
		roll       float64
		wantReason string
	}{
		{
			name:       "tampered server seed",
			serverSeed: "e07cbf24b54b41f63a425ddd2c4402fcbba91aae2bdb45b8af9f5def4ea286e5",
			hash:       hash, clientSeed: clientSeed, nonce: nonce, roll: roll,
			wantReason: models.ReasonSeedHashMismatch,
		},
		{
			name:       "tampered hash",
			serverSeed: serverSeed,
			hash:       HashSeed("some other seed"),
			clientSeed: clientSeed, nonce: nonce, roll: roll,
			wantReason: models.ReasonSeedHashMismatch,
		},
		{
			name:       "tampered client seed",
			serverSeed: serverSeed, hash: hash,
			clientSeed: "client124", nonce: nonce, roll: roll,
			wantReason: models.ReasonRollMismatch,
		},
		{
			name:       "tampered nonce",
			serverSeed: serverSeed, hash: hash, clientSeed: clientSeed,
			nonce: nonce + 1, roll: roll,
			wantReason: models.ReasonRollMismatch,
		},
		{
			name:       "tampered roll",
			serverSeed: serverSeed, hash: hash, clientSeed: clientSeed, nonce: nonce,
			roll:       roll + 0.00001,
			wantReason: models.ReasonRollMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Verify(tt.serverSeed, tt.hash, tt.clientSeed, tt.nonce, tt.roll)
			if result.Valid {
				t.Fatal("tampered inputs accepted")
			}
			if result.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestVerifyInvalidInput(t *testing.T) {
	serverSeed := "seed"
	result := Verify(serverSeed, HashSeed(serverSeed), "", 0, 50)

	if result.Valid {
		t.Fatal("empty client seed accepted")
	}
	if result.Reason != models.ReasonInvalidInput {
		t.Errorf("Reason = %q, want %q", result.Reason, models.ReasonInvalidInput)
	}
}

// Verification needs nothing but its four inputs: a third party running the
// same check over disclosed values gets the same answer.
func TestVerifyIsStateless(t *testing.T) {
	serverSeed := "stateless_seed"
	hash := HashSeed(serverSeed)
	roll, _ := Derive(serverSeed, "client", 3)

	for i := 0; i < 5; i++ {
		if result := Verify(serverSeed, hash, "client", 3, roll); !result.Valid {
			t.Fatalf("run %d: %+v", i, result)
		}
	}
}
