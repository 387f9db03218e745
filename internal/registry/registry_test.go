package registry_test

import (
	"testing"

	"github.com/onsi/gomega"

	"github.com/carv-ics-forth/testwatch/internal/registry"
)

func TestInsertGetRemove(t *testing.T) {
	g := gomega.NewWithT(t)

	reg := registry.New()
	key := registry.Key{Namespace: "default", Name: "ts-a"}

	g.Expect(reg.Insert(&registry.Record{Key: key, ExecutionID: "abc"})).To(gomega.Succeed())

	rec, ok := reg.Get(key)
	g.Expect(ok).To(gomega.BeTrue())
	g.Expect(rec.ExecutionID).To(gomega.Equal("abc"))

	reg.Remove(key)
	_, ok = reg.Get(key)
	g.Expect(ok).To(gomega.BeFalse())
}

func TestInsertRejectsDuplicate(t *testing.T) {
	g := gomega.NewWithT(t)

	reg := registry.New()
	key := registry.Key{Namespace: "default", Name: "ts-a"}

	g.Expect(reg.Insert(&registry.Record{Key: key})).To(gomega.Succeed())
	g.Expect(reg.Insert(&registry.Record{Key: key})).To(gomega.MatchError(registry.ErrAlreadyExists))
}

func TestGetMissingIsFalse(t *testing.T) {
	g := gomega.NewWithT(t)

	reg := registry.New()
	_, ok := reg.Get(registry.Key{Namespace: "default", Name: "nope"})
	g.Expect(ok).To(gomega.BeFalse())
}

func TestRemoveOfMissingIsNoop(t *testing.T) {
	reg := registry.New()
	reg.Remove(registry.Key{Namespace: "default", Name: "nope"})
}
