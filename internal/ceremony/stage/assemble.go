package stage

import "github.com/hamzazf/ceremony/internal/ceremony/qap"

// Assemble copies the ceremony's final Stage2 and Stage3 values into the
// proving/verification keypair shape the circuit consumer expects. Pure
// data movement: no further cryptographic checks are performed here, since
// every field was already accepted by VerifyTransform2/VerifyTransform3 at
// the round it was produced.
func Assemble(stage2 *Stage2, stage3 *Stage3) *qap.AssembledKeypair {
	return &qap.AssembledKeypair{
		ProvingKey: &qap.ProvingKey{
			PkA:      stage2.PkA,
			PkAPrime: stage2.PkAPrime,
			PkB:      stage2.PkB,
			PkBTemp:  stage2.PkBTemp,
			PkBPrime: stage2.PkBPrime,
			PkC:      stage2.PkC,
			PkCPrime: stage2.PkCPrime,
			PkK:      stage3.PkK,
		},
		VerificationKey: &qap.VerificationKey{
			VkA:          stage2.VkA,
			VkB:          stage2.VkB,
			VkC:          stage2.VkC,
			VkZ:          stage2.VkZ,
			VkGamma:      stage3.VkGamma,
			VkBetaGamma1: stage3.VkBetaGamma1,
			VkBetaGamma2: stage3.VkBetaGamma2,
		},
	}
}
