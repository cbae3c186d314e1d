package sqlinline

const QInsertUsageEvent = `--sql 69269bfc-d7e4-4741-a2cd-8721d7cda429
insert into usage_events (id, actor_id, request_id, event_type, success, latency_ms, country, created_at)
values (gen_random_uuid(), $1::text, $2::uuid, $3::text, $4::boolean, $5::int, $6::text, now());
`
