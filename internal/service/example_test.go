package service_test

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/toolboxtech/qr-utility/internal/service"
	"github.com/toolboxtech/qr-utility/internal/storage"
)

func ExampleLinkService_Shorten() {
	svc := service.NewLinkService(storage.NewMemoryStorage(), "https://toolboxtech.site", zap.NewNop())

	code := "promo"
	got, err := svc.Shorten(context.Background(), "https://example.com/landing", &code)
	if err != nil {
		fmt.Println(err)
		return
	}
	target, _ := svc.Resolve(context.Background(), got)

	fmt.Println(svc.ShortURL(got))
	fmt.Println(target)

	// Output:
	// https://toolboxtech.site/promo
	// https://example.com/landing
}
