package fair

import "dice-game-backend/internal/models"

// Verify recomputes the commitment and the roll from the four disclosed
// values and compares both against what was published. It depends on nothing
// but its inputs, so anyone outside the service boundary can run the same
// check.
//
// Roll comparison is exact. The derivation is integer arithmetic divided by a
// fixed scale, so an honest claim reproduces bit-for-bit.
func Verify(serverSeed, serverSeedHash, clientSeed string, nonce int64, claimedRoll float64) models.VerificationResult {
	if HashSeed(serverSeed) != serverSeedHash {
		return models.VerificationResult{
			Valid:  false,
			Reason: models.ReasonSeedHashMismatch,
		}
	}

	roll, err := Derive(serverSeed, clientSeed, nonce)
	if err != nil {
		return models.VerificationResult{
			Valid:  false,
			Reason: models.ReasonInvalidInput,
		}
	}

	if roll != claimedRoll {
		return models.VerificationResult{
			Valid:        false,
			Reason:       models.ReasonRollMismatch,
			ExpectedRoll: roll,
		}
	}

	return models.VerificationResult{Valid: true, ExpectedRoll: roll}
}
