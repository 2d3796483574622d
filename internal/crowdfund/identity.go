package crowdfund

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/stellar/go/hash"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
)

const (
	// RewardUnitName is the unit name of every reward token
	RewardUnitName = "RWDNFT"

	rewardNamePrefix = "Reward NFT - "
	maxAssetNameLen  = 32
	rewardSalt       = "metadata"
)

// ValidAccount reports whether addr is a Stellar account address (G...)
func ValidAccount(addr string) bool {
	_, err := keypair.ParseAddress(addr)
	return err == nil
}

// ValidCustody reports whether addr is a Stellar contract address (C...)
func ValidCustody(addr string) bool {
	_, err := strkey.Decode(strkey.VersionByteContract, addr)
	return err == nil
}

// RewardReference derives the content reference of the reward token for
// (project, account): "ipfs://" followed by the hex SHA-256 of the salt, the
// big-endian project id and the raw account public key.
func RewardReference(projectID uint64, account string) (string, error) {
	raw, err := strkey.Decode(strkey.VersionByteAccountID, account)
	if err != nil {
		return "", fmt.Errorf("failed to decode account %q: %w", account, err)
	}

	buf := make([]byte, 0, len(rewardSalt)+8+len(raw))
	buf = append(buf, rewardSalt...)
	buf = binary.BigEndian.AppendUint64(buf, projectID)
	buf = append(buf, raw...)

	sum := hash.Hash(buf)
	return "ipfs://" + hex.EncodeToString(sum[:]), nil
}

// RewardName builds the display name of a project's reward token
// Names longer than maxAssetNameLen bytes are cut at the last rune boundary
// that fits.
func RewardName(projectName string) string {
	name := rewardNamePrefix + projectName
	if len(name) <= maxAssetNameLen {
		return name
	}
	n := maxAssetNameLen
	for n > 0 && !utf8.RuneStart(name[n]) {
		n--
	}
	return name[:n]
}
