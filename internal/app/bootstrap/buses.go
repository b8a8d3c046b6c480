// Package bootstrap registers every command and query handler and wraps the
// buses with the middleware pipeline.
package bootstrap

import (
	"log/slog"

	"travelstay/internal/app/commands"
	"travelstay/internal/app/dto"
	availabilityapp "travelstay/internal/app/handlers/availability"
	bookingapp "travelstay/internal/app/handlers/booking"
	listingapp "travelstay/internal/app/handlers/listings"
	paymentsapp "travelstay/internal/app/handlers/payments"
	reviewsapp "travelstay/internal/app/handlers/reviews"
	"travelstay/internal/app/middleware"
	"travelstay/internal/app/outbox"
	"travelstay/internal/app/policies"
	"travelstay/internal/app/queries"
	"travelstay/internal/app/uow"
)

type Dependencies struct {
	UoWFactory  uow.UoWFactory
	Encoder     outbox.EventEncoder
	Gateway     policies.PaymentGateway
	Images      policies.ImageStore
	Idempotency middleware.IdempotencyStore
	Validator   middleware.Validator
	// Flusher is optional; without it committed events wait for the next poll.
	Flusher outbox.Flusher
	Logger  *slog.Logger
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func NewBuses(d Dependencies) Buses {
	commandBus := commands.NewInMemoryBus()
	commands.Register[listingapp.CreateListingCommand, *dto.Listing](commandBus, &listingapp.CreateListingHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})
	commands.Register[listingapp.UpdateListingCommand, *dto.Listing](commandBus, &listingapp.UpdateListingHandler{UoWFactory: d.UoWFactory})
	commands.Register[listingapp.DeactivateListingCommand, *dto.Listing](commandBus, &listingapp.DeactivateListingHandler{UoWFactory: d.UoWFactory, Logger: d.Logger})
	commands.Register[listingapp.AddListingImageCommand, *dto.ListingImage](commandBus, &listingapp.AddListingImageHandler{UoWFactory: d.UoWFactory, Images: d.Images, Logger: d.Logger})
	commands.Register[listingapp.RemoveListingImageCommand, *dto.ListingImage](commandBus, &listingapp.RemoveListingImageHandler{UoWFactory: d.UoWFactory, Images: d.Images, Logger: d.Logger})
	commands.Register[bookingapp.CreateBookingCommand, *dto.Booking](commandBus, &bookingapp.CreateBookingHandler{UoWFactory: d.UoWFactory, Encoder: d.Encoder, Logger: d.Logger})
	commands.Register[bookingapp.UpdateBookingStatusCommand, *dto.Booking](commandBus, &bookingapp.UpdateBookingStatusHandler{UoWFactory: d.UoWFactory, Encoder: d.Encoder, Logger: d.Logger})
	commands.Register[bookingapp.CancelBookingCommand, *dto.Booking](commandBus, &bookingapp.CancelBookingHandler{UoWFactory: d.UoWFactory, Encoder: d.Encoder, Logger: d.Logger})
	commands.Register[reviewsapp.CreateReviewCommand, *dto.Review](commandBus, &reviewsapp.CreateReviewHandler{UoWFactory: d.UoWFactory, Encoder: d.Encoder, Logger: d.Logger})
	commands.Register[reviewsapp.UpdateReviewCommand, *dto.Review](commandBus, &reviewsapp.UpdateReviewHandler{UoWFactory: d.UoWFactory})
	commands.Register[reviewsapp.DeleteReviewCommand, *dto.Review](commandBus, &reviewsapp.DeleteReviewHandler{UoWFactory: d.UoWFactory})
	commands.Register[paymentsapp.InitiatePaymentCommand, *dto.Payment](commandBus, &paymentsapp.InitiatePaymentHandler{UoWFactory: d.UoWFactory, Gateway: d.Gateway, Encoder: d.Encoder, Logger: d.Logger})
	commands.Register[paymentsapp.HandleWebhookCommand, *dto.WebhookAck](commandBus, &paymentsapp.HandleWebhookHandler{UoWFactory: d.UoWFactory, Encoder: d.Encoder, Logger: d.Logger})

	queryBus := queries.NewInMemoryBus()
	queries.Register[listingapp.GetListingQuery, dto.ListingDetail](queryBus, &listingapp.GetListingHandler{UoWFactory: d.UoWFactory})
	queries.Register[listingapp.SearchListingsQuery, dto.ListingCollection](queryBus, &listingapp.SearchListingsHandler{UoWFactory: d.UoWFactory})
	queries.Register[availabilityapp.CheckAvailabilityQuery, dto.Availability](queryBus, &availabilityapp.CheckAvailabilityHandler{UoWFactory: d.UoWFactory})
	queries.Register[bookingapp.GetBookingQuery, dto.Booking](queryBus, &bookingapp.GetBookingHandler{UoWFactory: d.UoWFactory})
	queries.Register[bookingapp.ListBookingsQuery, dto.BookingCollection](queryBus, &bookingapp.ListBookingsHandler{UoWFactory: d.UoWFactory})
	queries.Register[bookingapp.ListListingBookingsQuery, dto.BookingCollection](queryBus, &bookingapp.ListListingBookingsHandler{UoWFactory: d.UoWFactory})
	queries.Register[reviewsapp.ListReviewsQuery, dto.ReviewCollection](queryBus, &reviewsapp.ListReviewsHandler{UoWFactory: d.UoWFactory})
	queries.Register[paymentsapp.GetPaymentQuery, dto.Payment](queryBus, &paymentsapp.GetPaymentHandler{UoWFactory: d.UoWFactory})

	var flush middleware.CommandMiddleware
	if d.Flusher != nil {
		flush = middleware.OutboxFlush(d.Flusher, d.Logger)
	}
	var validate middleware.CommandMiddleware
	var validateQuery middleware.QueryMiddleware
	if d.Validator != nil {
		validate = middleware.Validation(d.Validator)
		validateQuery = middleware.QueryValidation(d.Validator)
	}

	return Buses{
		Commands: middleware.ChainCommands(
			commandBus,
			middleware.Logging(d.Logger),
			middleware.Idempotency(d.Idempotency, nil),
			middleware.Authorization(middleware.RequireActor{}),
			validate,
			flush,
			middleware.Transaction(d.UoWFactory),
		),
		Queries: middleware.ChainQueries(
			queryBus,
			middleware.QueryAuthorization(middleware.RequireActor{}),
			validateQuery,
		),
	}
}
