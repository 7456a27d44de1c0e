package sqlinline

const QInsertUsageLog = `--sql a83e5c47-90d1-4f6b-b2e8-7c4a1d9f0625
insert into usage_logs(id, user_id, chat_id, message_id, query, response, tokens_used, credits_deducted, model, voice, sources, processing_ms, created_at)
values ($1::uuid, $2::uuid, $3::uuid, $4::uuid, $5::text, $6::text, $7::int, $8::int, $9::text, $10::boolean, coalesce($11::jsonb, '[]'::jsonb), $12::bigint, now());
`

const QMonthlyUsageSummary = `--sql f57b2a90-36ce-4d18-8f4a-b0e9c6d21387
select count(*), coalesce(sum(tokens_used), 0), coalesce(sum(credits_deducted), 0)
from usage_logs
where user_id = $1::uuid and created_at >= $2::timestamptz;
`
