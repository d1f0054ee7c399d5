package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// AvailabilitySink receives decoded availability events from the
// broker.  The notifier hub implements it to fan deliveries out to
// in-process subscribers.
type AvailabilitySink interface {
    Deliver(event AvailabilityChangedEvent)
}

// StartAvailabilityConsumer connects to RabbitMQ, binds an exclusive
// queue to the availability topic exchange (all scopes), and forwards
// each event to the sink.  It runs a reconnect loop with capped
// exponential backoff and keeps running across broker restarts;
// processing errors are logged and the message rejected so one bad
// payload cannot stall the stream.  Multiple process instances each
// get their own queue, so every instance's subscribers see every
// committed delta regardless of which instance performed the write.
func StartAvailabilityConsumer(url string, sink AvailabilitySink) {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("availability-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := availabilityLoop(conn, sink); err != nil {
            log.Printf("availability-consumer: consume loop ended: %v; reconnecting", err)
            _ = conn.Close()
            time.Sleep(2 * time.Second)
        }
    }
}

func availabilityLoop(conn *amqp.Connection, sink AvailabilitySink) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.ExchangeDeclare(AvailabilityExchange, "topic", true, false, false, false, nil); err != nil {
        return fmt.Errorf("exchange declare: %w", err)
    }
    // Exclusive auto-named queue: deltas are ephemeral per instance.
    q, err := ch.QueueDeclare("", false, true, true, false, nil)
    if err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    if err := ch.QueueBind(q.Name, "#", AvailabilityExchange, false, nil); err != nil {
        return fmt.Errorf("queue bind: %w", err)
    }
    msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        var ev AvailabilityChangedEvent
        if err := json.Unmarshal(d.Body, &ev); err != nil {
            log.Printf("availability-consumer: bad payload: %v", err)
            continue
        }
        sink.Deliver(ev)
    }
    return errors.New("deliveries channel closed")
}

// StartBookingConsumer consumes the durable booking.confirmed queue
// and appends each event to logs/booking.log in a single-line,
// human-friendly format.  It reconnects forever like the availability
// consumer; failed messages are rejected without requeue to avoid
// tight redelivery loops.
func StartBookingConsumer(url string) {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("booking-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        if err := bookingLoop(conn); err != nil {
            log.Printf("booking-consumer: consume loop ended: %v; reconnecting", err)
            _ = conn.Close()
            time.Sleep(2 * time.Second)
        }
    }
}

func bookingLoop(conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("booking-consumer: set QoS failed: %v", err)
    }
    if _, err := ch.QueueDeclare(bookingQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(bookingQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleBookingMessage(d.Body); err != nil {
            log.Printf("booking-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false)
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleBookingMessage(body []byte) error {
    var ev BookingConfirmedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if err := os.MkdirAll("logs", 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    fpath := filepath.Join("logs", "booking.log")
    f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    line := fmt.Sprintf("[%s] Booking confirmed | booking_id=%s | scope=%s | customer=%s | total=%d cents | discount=%s | resources=[%s]\n",
        ev.ConfirmedAt, ev.BookingID, ev.ScopeKey, ev.CustomerRef,
        ev.TotalAmountCents, ev.DiscountKind, strings.Join(ev.ResourceIDs, ","))

    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
