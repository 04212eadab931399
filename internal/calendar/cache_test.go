package calendar_test

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/go-redis/redismock/v9"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MemoryCache", func() {
	var (
		ctx   context.Context
		cache *calendar.MemoryCache
	)

	BeforeEach(func() {
		ctx = context.Background()
		cache = calendar.NewMemoryCache()
		DeferCleanup(cache.Stop)
	})

	It("should return stored values until the ttl elapses", func() {
		Expect(cache.Set(ctx, "k", []byte("v"), 50*time.Millisecond)).To(Succeed())

		val, ok, err := cache.Get(ctx, "k")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(string(val)).To(Equal("v"))

		Eventually(func() bool {
			_, ok, _ := cache.Get(ctx, "k")
			return ok
		}).WithTimeout(2 * time.Second).WithPolling(10 * time.Millisecond).Should(BeFalse())
	})

	It("should not extend the ttl on reads", func() {
		Expect(cache.Set(ctx, "k", []byte("v"), 100*time.Millisecond)).To(Succeed())

		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			if _, ok, _ := cache.Get(ctx, "k"); !ok {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		Fail("entry outlived its ttl while being read")
	})

	It("should keep entries without a ttl", func() {
		Expect(cache.Set(ctx, "k", []byte("v"), 0)).To(Succeed())
		time.Sleep(20 * time.Millisecond)

		_, ok, err := cache.Get(ctx, "k")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("should evict expired entries that are never read again", func() {
		for i := 0; i < 500; i++ {
			key := fmt.Sprintf("calendar:profile:1:%d", i)
			Expect(cache.Set(ctx, key, []byte("p"), 20*time.Millisecond)).To(Succeed())
		}
		Expect(cache.Len()).To(Equal(500))

		Eventually(cache.Len).WithTimeout(2 * time.Second).WithPolling(10 * time.Millisecond).Should(BeZero())
	})

	It("should delete only keys under the prefix", func() {
		Expect(cache.Set(ctx, "calendar:profile:1:10", []byte("a"), 0)).To(Succeed())
		Expect(cache.Set(ctx, "calendar:profile:1:11", []byte("b"), time.Minute)).To(Succeed())
		Expect(cache.Set(ctx, "calendar:profile:2:10", []byte("c"), 0)).To(Succeed())

		Expect(cache.DeletePrefix(ctx, "calendar:profile:1:")).To(Succeed())

		_, ok, _ := cache.Get(ctx, "calendar:profile:1:10")
		Expect(ok).To(BeFalse())
		_, ok, _ = cache.Get(ctx, "calendar:profile:1:11")
		Expect(ok).To(BeFalse())
		_, ok, _ = cache.Get(ctx, "calendar:profile:2:10")
		Expect(ok).To(BeTrue())
		Expect(cache.Len()).To(Equal(1))
	})
})

var _ = Describe("RedisCache", func() {
	var (
		ctx   context.Context
		mock  redismock.ClientMock
		cache *calendar.RedisCache
	)

	BeforeEach(func() {
		ctx = context.Background()
		db, m := redismock.NewClientMock()
		mock = m
		cache = calendar.NewRedisCache(db)
	})

	AfterEach(func() {
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("should report a miss on redis.Nil", func() {
		mock.ExpectGet("calendar:profile:1:10").RedisNil()

		val, ok, err := cache.Get(ctx, "calendar:profile:1:10")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeFalse())
		Expect(val).To(BeNil())
	})

	It("should return cached bytes on a hit", func() {
		mock.ExpectGet("calendar:profile:1:10").SetVal(`{"weekend_days":[5,6]}`)

		val, ok, err := cache.Get(ctx, "calendar:profile:1:10")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(string(val)).To(Equal(`{"weekend_days":[5,6]}`))
	})

	It("should set values with the ttl", func() {
		payload := []byte(`{"weekend_days":[6]}`)
		mock.ExpectSet("calendar:profile:1:10", payload, 30*time.Minute).SetVal("OK")

		Expect(cache.Set(ctx, "calendar:profile:1:10", payload, 30*time.Minute)).To(Succeed())
	})

	It("should scan and delete every page under the prefix", func() {
		mock.ExpectScan(0, "calendar:profile:1:*", 100).SetVal([]string{"calendar:profile:1:10"}, 7)
		mock.ExpectDel("calendar:profile:1:10").SetVal(1)
		mock.ExpectScan(7, "calendar:profile:1:*", 100).SetVal([]string{"calendar:profile:1:11"}, 0)
		mock.ExpectDel("calendar:profile:1:11").SetVal(1)

		Expect(cache.DeletePrefix(ctx, "calendar:profile:1:")).To(Succeed())
	})
})
