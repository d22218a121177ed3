package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// QuickHashThreshold is the size above which SameContent switches to
// HashFileQuick.
const QuickHashThreshold = 10 * MB

// HashFile computes SHA256 hash of a file
func HashFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// HashFileQuick computes SHA256 hash of first and last chunks of a file
func HashFileQuick(filepath string, chunkSize int64) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return "", err
	}

	hash := sha256.New()

	if fileInfo.Size() <= chunkSize*2 {
		if _, err := io.Copy(hash, file); err != nil {
			return "", err
		}
		return hex.EncodeToString(hash.Sum(nil)), nil
	}

	if _, err := io.CopyN(hash, file, chunkSize); err != nil {
		return "", err
	}

	if _, err := file.Seek(-chunkSize, io.SeekEnd); err != nil {
		return "", err
	}
	if _, err := io.CopyN(hash, file, chunkSize); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// SameContent reports whether two files have the same size and hash.
// Files larger than QuickHashThreshold are compared by their first and
// last megabyte only.
func SameContent(a, b string) (bool, error) {
	infoA, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	infoB, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	if infoA.Size() != infoB.Size() {
		return false, nil
	}

	hashOf := HashFile
	if infoA.Size() > QuickHashThreshold {
		hashOf = func(path string) (string, error) {
			return HashFileQuick(path, MB)
		}
	}

	hashA, err := hashOf(a)
	if err != nil {
		return false, err
	}
	hashB, err := hashOf(b)
	if err != nil {
		return false, err
	}

	return hashA == hashB, nil
}
