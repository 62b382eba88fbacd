package continuation_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestContinuation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Continuation Suite")
}
